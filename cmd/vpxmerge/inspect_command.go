package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vpxmerge/internal/biff"
	"vpxmerge/internal/cfb"
	"vpxmerge/internal/vpx"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var itemsOnly, imagesOnly bool

	cmd := &cobra.Command{
		Use:         "inspect <table.vpx>",
		Short:       "List the items and images stored in a table",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cfb.Open(args[0])
			if err != nil {
				return fmt.Errorf("open table: %w", err)
			}
			defer file.Close()

			out := cmd.OutOrStdout()
			showItems := !imagesOnly
			showImages := !itemsOnly

			if showItems {
				rows, err := itemRows(file)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"#", "Item", "Kind"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
			}
			if showImages {
				rows, err := imageRows(file)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"#", "Image", "Size"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&itemsOnly, "items", false, "Only list game items")
	cmd.Flags().BoolVar(&imagesOnly, "images", false, "Only list images")
	cmd.MarkFlagsMutuallyExclusive("items", "images")
	return cmd
}

func itemRows(file *cfb.File) ([][]string, error) {
	var rows [][]string
	for index := 0; ; index++ {
		path := fmt.Sprintf("GameStg/GameItem%d", index)
		if !file.Exists(path) {
			return rows, nil
		}
		data, err := file.ReadStream(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		r := biff.NewReader(data)
		kind := vpx.ItemKind(r.ReadI32())
		name := ""
		for r.Next() {
			if r.Tag() == "NAME" {
				name = r.ReadWideString()
			}
			r.SkipRecord()
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		rows = append(rows, []string{strconv.Itoa(index), name, kind.String()})
	}
}

func imageRows(file *cfb.File) ([][]string, error) {
	var rows [][]string
	for index := 0; ; index++ {
		path := fmt.Sprintf("GameStg/Image%d", index)
		if !file.Exists(path) {
			return rows, nil
		}
		data, err := file.ReadStream(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		// The binary pixel block follows the header records; NAME and the
		// dimensions always precede it, so stop at the first ENDB.
		r := biff.NewReader(data)
		var name string
		var width, height uint32
		for r.Next() {
			switch r.Tag() {
			case "NAME":
				name = r.ReadString()
			case "WDTH":
				width = r.ReadU32()
			case "HGHT":
				height = r.ReadU32()
			}
			r.SkipRecord()
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		rows = append(rows, []string{
			strconv.Itoa(index), name,
			fmt.Sprintf("%dx%d", width, height),
		})
	}
}

// Package vpx models the table format on top of the biff codec: item kind
// codes, the integrity digest over the authenticated stream sequence, mesh
// record encoding, the material table layout, and the text-pattern patcher
// for the embedded automation script.
package vpx

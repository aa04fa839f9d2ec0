// Package shoptest holds models whose descriptor tables are generated by
// gracedec gen and checked in.
package shoptest

import "time"

//go:generate go run github.com/reoring/gracedec/cmd/gracedec gen --type Order --registry ShopRegistry

type Audit struct {
	CreatedBy string `json:"created_by" default:"system"`
}

type Order struct {
	Audit
	ID     string    `json:"id"`
	Total  int64     `graceful:"name=total,alt=amount"`
	Lines  []Line    `json:"lines"`
	Note   *string   `json:"note"`
	At     time.Time `json:"at"`
	Parent *Order    `json:"parent"`
}

type Line struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

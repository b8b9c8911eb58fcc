package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/pricewatch/pkg/command"
	"github.com/raykavin/pricewatch/pkg/core"
)

// reportStatus prints the stored trade against the live price; the feed is
// not called when nothing is recorded
func reportStatus(ctx context.Context, w io.Writer, store core.PositionStore, feed core.PriceFeed, symbol string) error {
	position, err := store.Position(ctx)
	if err != nil {
		return err
	}
	if position == nil {
		fmt.Fprintln(w, command.MsgNoRecord)
		return nil
	}

	quote, err := feed.LastQuote(ctx)
	if err != nil {
		return err
	}

	deviation, err := core.ComputeDeviation(position.Price, quote.Value, position.Side)
	if err != nil {
		return err
	}

	printStatus(w, symbol, *position, quote.Value, deviation)
	return nil
}

// printStatus renders the recorded trade next to the live price
func printStatus(w io.Writer, symbol string, position core.Position, current float64, d core.Deviation) {
	table := tablewriter.NewWriter(w)

	move := "+"
	if !d.Rising() {
		move = "-"
	}

	recorded := "-"
	if !position.RecordedAt.IsZero() {
		recorded = position.RecordedAt.Local().Format(time.DateTime)
	}

	data := [][]string{
		{"Coin", symbol},
		{"Side", string(position.Side)},
		{"Reference", core.FormatPrice(position.Price)},
		{"Current", core.FormatPrice(current)},
		{"Change", move + d.FormatPercent() + "%"},
		{"Result", string(d.Direction)},
		{"Recorded", recorded},
	}

	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
}

package models

import (
	"fmt"
	"io"
	"text/tabwriter"
)

func FprintDealTable(w io.Writer, deal *Deal) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "seq\tside\tstatus\tdeviation\tqty\tvolume\tprice\tavg_price\texit_price\ttotal_qty\n")
	for i := range deal.Orders {
		o := &deal.Orders[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Sequence, o.Side, o.Status,
			o.Deviation.String(), o.Quantity.String(), o.Volume.String(),
			o.Price.String(), o.AveragePrice.String(), o.ExitPrice.String(),
			o.TotalQuantity.String())
	}
	tw.Flush()
}

func FprintPlannedOrders(w io.Writer, orders []PlannedOrder) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "seq\tdeviation\tqty\tvolume\tprice\tavg_price\texit_price\ttotal_qty\ttotal_volume\n")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Sequence, o.Deviation.String(), o.Quantity.String(), o.Volume.String(),
			o.Price.String(), o.AveragePrice.String(), o.ExitPrice.String(),
			o.TotalQuantity.String(), o.TotalVolume.String())
	}
	tw.Flush()
}

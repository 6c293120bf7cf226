package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadOrdersCSV parses "time, destination, priority" lines.
// Blank lines are skipped. The returned orders carry no sequence number.
func ReadOrdersCSV(r io.Reader) ([]Order, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 3
	cr.Comment = '#'
	var orders []Order
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read orders: %w", err)
		}
		line, _ := cr.FieldPos(0)
		placed, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("read orders: line %d: time: %w", line, err)
		}
		prio, err := ParsePriority(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("read orders: line %d: %w", line, err)
		}
		o := Order{PlacedAt: placed, Destination: strings.TrimSpace(rec[1]), Priority: prio}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("read orders: line %d: %w", line, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

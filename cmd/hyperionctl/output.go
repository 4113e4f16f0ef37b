package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/andyle182810/hyperion-go/hyperion"
	"github.com/olekukonko/tablewriter"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

func render(out io.Writer, format string, result hyperion.Result) error {
	if format == outputTable {
		return renderTable(out, result)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	return nil
}

func renderTable(out io.Writer, result hyperion.Result) error {
	table := tablewriter.NewWriter(out)
	table.Header("Key", "Value")

	if err := table.Bulk(flatten(result)); err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// flatten turns a decoded JSON document into sorted key/value rows. Nested
// keys are joined with "." and list items are addressed as key[i].
func flatten(result hyperion.Result) [][]string {
	rows := make([][]string, 0, len(result))
	flattenInto(&rows, "", map[string]any(result))

	slices.SortFunc(rows, func(a, b []string) int {
		return cmp.Compare(a[0], b[0])
	})

	return rows
}

func flattenInto(rows *[][]string, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 && prefix != "" {
			*rows = append(*rows, []string{prefix, "{}"})

			return
		}

		for key, item := range v {
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}

			flattenInto(rows, name, item)
		}
	case []any:
		if len(v) == 0 {
			*rows = append(*rows, []string{prefix, "[]"})

			return
		}

		for i, item := range v {
			flattenInto(rows, prefix+"["+strconv.Itoa(i)+"]", item)
		}
	default:
		*rows = append(*rows, []string{prefix, formatScalar(v)})
	}
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

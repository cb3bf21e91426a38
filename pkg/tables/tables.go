package tables

import (
	"fmt"
	"github.com/icinga/icinga-livestatus/pkg/livestatus"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"slices"
	"strconv"
	"strings"
)

// querier answers queries of one table.
type querier interface {
	columnNames() []string
	// query returns the values of the given columns of every row, at most limit rows unless limit is negative.
	query(columns []string, limit int) ([][]string, error)
}

// column renders one value of rows of type T.
type column[T any] struct {
	name  string
	value func(T) string
}

// table is a querier over the rows yielded by rows.
type table[T any] struct {
	name    string
	columns []column[T]
	rows    func(yield func(T) bool) bool
}

func (t table[T]) columnNames() []string {
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.name)
	}

	return names
}

func (t table[T]) query(columns []string, limit int) ([][]string, error) {
	selected := make([]column[T], 0, len(columns))
	for _, name := range columns {
		i := slices.IndexFunc(t.columns, func(c column[T]) bool { return c.name == name })
		if i < 0 {
			return nil, errors.Errorf("Table '%s' has no column '%s'", t.name, name)
		}

		selected = append(selected, t.columns[i])
	}

	var result [][]string
	t.rows(func(row T) bool {
		if limit >= 0 && len(result) >= limit {
			return false
		}

		values := make([]string, 0, len(selected))
		for _, c := range selected {
			values = append(values, c.value(row))
		}

		result = append(result, values)

		return true
	})

	return result, nil
}

// query holds the header lines of a GET request this executor understands.
// Any other header, filters included, is ignored.
type query struct {
	columns        []string
	columnHeaders  bool
	keepAlive      bool
	responseHeader livestatus.ResponseHeader
	limit          int
}

func parseQuery(lines []string) (query, error) {
	q := query{limit: -1}
	columnHeaders := ""

	for _, line := range lines {
		header, value, ok := strings.Cut(line, ":")
		if !ok {
			return q, errors.Errorf("Invalid header line '%s'", line)
		}

		value = strings.TrimSpace(value)
		switch header {
		case "Columns":
			q.columns = strings.Fields(value)
		case "ColumnHeaders":
			columnHeaders = value
		case "KeepAlive":
			q.keepAlive = value == "on"
		case "ResponseHeader":
			switch value {
			case "fixed16":
				q.responseHeader = livestatus.Fixed16
			case "off":
				q.responseHeader = livestatus.NoHeader
			default:
				return q, errors.Errorf("Invalid response header '%s'", value)
			}
		case "Limit":
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 0 {
				return q, errors.Errorf("Invalid value for Limit: '%s'", value)
			}

			q.limit = limit
		}
	}

	// Column headers are sent by default unless columns are selected explicitly.
	q.columnHeaders = columnHeaders == "on" || (columnHeaders == "" && len(q.columns) == 0)

	return q, nil
}

// Executor answers GET requests for the tables of the monitoring core's objects.
// Rows are rendered as CSV with ";" between columns, "," between list elements
// and "|" between the parts of a list element.
type Executor struct {
	tables map[string]querier
	logger *zap.SugaredLogger
}

// AnswerGetRequest implements the livestatus.Executor interface.
func (e *Executor) AnswerGetRequest(lines []string, out *livestatus.OutputBuffer, tableName string) bool {
	q, err := parseQuery(lines)
	out.SetResponseHeader(q.responseHeader)
	if err != nil {
		out.SetError(livestatus.InvalidRequest, err.Error())
		return false
	}

	if tableName == "" {
		out.SetError(livestatus.InvalidRequest, "Invalid GET request, missing table name")
		return false
	}

	t, ok := e.tables[tableName]
	if !ok {
		out.SetError(livestatus.NotFound, fmt.Sprintf("Invalid GET request, no such table '%s'", tableName))
		return false
	}

	columns := q.columns
	if len(columns) == 0 {
		columns = t.columnNames()
	}

	rows, err := t.query(columns, q.limit)
	if err != nil {
		out.SetError(livestatus.InvalidRequest, err.Error())
		return false
	}

	if q.columnHeaders {
		writeRow(out, columns)
	}

	for _, row := range rows {
		writeRow(out, row)
	}

	e.logger.Debugf("Answered query of table %s with %d rows", tableName, len(rows))

	return q.keepAlive
}

func writeRow(out *livestatus.OutputBuffer, values []string) {
	_, _ = out.WriteString(strings.Join(values, ";"))
	_, _ = out.WriteString("\n")
}

// Assert interface compliance.
var _ livestatus.Executor = (*Executor)(nil)

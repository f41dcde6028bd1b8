package pcd

import "fmt"

// RecordSet is the columnar payload of a point cloud: one column per
// layout entry, all of the same length.
type RecordSet struct {
	columns []*Column
	index   map[string]int
	points  int
}

// NewRecordSet assembles columns into a record set. Column names must be
// unique and all columns must have the same length.
func NewRecordSet(columns ...*Column) (*RecordSet, error) {
	rs := &RecordSet{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("%w: column %d is nil", ErrSchema, i)
		}
		if _, dup := rs.index[c.name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchema, c.name)
		}
		rs.index[c.name] = i
		if i == 0 {
			rs.points = c.Len()
			continue
		}
		if c.Len() != rs.points {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d", ErrSchema, c.name, c.Len(), rs.points)
		}
	}
	return rs, nil
}

// Len returns the number of points (rows).
func (rs *RecordSet) Len() int { return rs.points }

// Columns returns the columns in layout order.
func (rs *RecordSet) Columns() []*Column { return rs.columns }

// Column returns the named column, or nil.
func (rs *RecordSet) Column(name string) *Column {
	i, ok := rs.index[name]
	if !ok {
		return nil
	}
	return rs.columns[i]
}

// Names returns the column names in layout order.
func (rs *RecordSet) Names() []string {
	out := make([]string, len(rs.columns))
	for i, c := range rs.columns {
		out[i] = c.name
	}
	return out
}

// checkLayout verifies that rs matches the layout column by column.
func (rs *RecordSet) checkLayout(layout Layout, points int) error {
	if len(rs.columns) != len(layout) {
		return fmt.Errorf("%w: record set has %d columns, layout has %d", ErrSchema, len(rs.columns), len(layout))
	}
	for i, spec := range layout {
		c := rs.columns[i]
		if c.name != spec.Name || c.typ != spec.Type {
			return fmt.Errorf("%w: column %d is %s %v, layout wants %s %v",
				ErrSchema, i, c.name, c.typ, spec.Name, spec.Type)
		}
	}
	if rs.points != points {
		return fmt.Errorf("%w: record set has %d points, header declares %d", ErrSchema, rs.points, points)
	}
	return nil
}

package workload

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/snappy"
)

type Shape string

const (
	ShapeString Shape = "string"
	ShapeArray  Shape = "array"
	ShapeMap    Shape = "map"
	ShapeRecord Shape = "record"
	ShapePacked Shape = "packed"
)

// DefaultShapes is the mix of the plain experiment: one of each of the first
// four shapes in turn.
var DefaultShapes = []Shape{ShapeString, ShapeArray, ShapeMap, ShapeRecord}

// Record is an attribute bag, the shape of an ad-hoc object with named fields.
type Record struct {
	Attrs map[string]any
}

var builders = map[Shape]func(i int) any{
	ShapeString: func(i int) any {
		return strings.Repeat("x", 32+i%400)
	},
	ShapeArray: func(i int) any {
		arr := make([]int, 8+i%200)
		for j := range arr {
			arr[j] = i * 3
		}
		return arr
	},
	ShapeMap: func(i int) any {
		m := make(map[string]string, i%40)
		for k := 0; k < i%40; k++ {
			m["k"+strconv.Itoa(k)] = strings.Repeat("v", k%60)
		}
		return m
	},
	ShapeRecord: func(i int) any {
		return &Record{Attrs: map[string]any{
			"id":   i,
			"name": "obj-" + strconv.Itoa(i),
			"blob": strings.Repeat("p", i%800),
		}}
	},
	ShapePacked: func(i int) any {
		return snappy.Encode(nil, []byte(strings.Repeat("z", 64+i%1024)))
	},
}

// ParseShapes validates shape names.
func ParseShapes(names []string) ([]Shape, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no object shapes given")
	}
	shapes := make([]Shape, 0, len(names))
	for _, name := range names {
		s := Shape(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := builders[s]; !ok {
			return nil, fmt.Errorf("unknown object shape %q (have %s)", name, strings.Join(ShapeNames(), ", "))
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

func ShapeNames() []string {
	names := make([]string, 0, len(builders))
	for s := range builders {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}

// Footprint estimates the bytes an object occupies, used by backends that
// need a size for the mirrored allocation.
func Footprint(obj any) int {
	switch v := obj.(type) {
	case string:
		return len(v)
	case []byte:
		return len(v)
	case []int:
		return len(v) * 8
	case map[string]string:
		n := 48
		for k, val := range v {
			n += len(k) + len(val) + 32
		}
		return n
	case *Record:
		n := 48
		for k, val := range v.Attrs {
			n += len(k) + 32
			if s, ok := val.(string); ok {
				n += len(s)
			}
		}
		return n
	default:
		return 16
	}
}

package view

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction направление сортировки
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Query параметры производного представления списка
type Query struct {
	SearchTerm    string
	SearchFields  []string
	FilterField   string
	FilterValue   string
	SortField     string
	SortDirection Direction
	// Page нумеруется с 1; страница за последней прижимается к последней
	Page int
	// PageSize <= 0 отдаёт всё одной страницей
	PageSize int
}

// Fields именованные аксессоры полей сущности. Аксессор возвращает string, bool,
// целое, float, decimal.Decimal, time.Time или fmt.Stringer.
type Fields[T any] map[string]func(T) any

// Page результат: срез для отрисовки и число страниц
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Total      int
}

// Compose фильтрует, сортирует и режет коллекцию. Входной срез не меняется,
// повторный вызов с теми же аргументами даёт тот же результат.
func Compose[T any](items []T, fields Fields[T], q Query) Page[T] {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matchesSearch(it, fields, q) && matchesFilter(it, fields, q) {
			out = append(out, it)
		}
	}

	if get, ok := fields[q.SortField]; ok {
		desc := q.SortDirection == Desc
		col := collate.New(language.French, collate.IgnoreCase)
		// stable: equal keys keep collection order in both directions
		slices.SortStableFunc(out, func(a, b T) int {
			c := compare(col, get(a), get(b))
			if desc {
				return -c
			}
			return c
		})
	}

	return paginate(out, q.Page, q.PageSize)
}

func matchesSearch[T any](it T, fields Fields[T], q Query) bool {
	term := fold(strings.TrimSpace(q.SearchTerm))
	if term == "" {
		return true
	}
	for _, name := range q.SearchFields {
		get, ok := fields[name]
		if !ok {
			continue
		}
		if strings.Contains(fold(text(get(it))), term) {
			return true
		}
	}
	return false
}

func matchesFilter[T any](it T, fields Fields[T], q Query) bool {
	if q.FilterField == "" || q.FilterValue == "" {
		return true
	}
	get, ok := fields[q.FilterField]
	if !ok {
		return true
	}
	return fold(text(get(it))) == fold(q.FilterValue)
}

func paginate[T any](items []T, page, size int) Page[T] {
	total := len(items)
	if total == 0 {
		return Page[T]{Items: []T{}, Page: 1}
	}
	if size <= 0 {
		return Page[T]{Items: items, Page: 1, TotalPages: 1, Total: total}
	}
	pages := (total + size - 1) / size
	page = min(max(page, 1), pages)
	start := (page - 1) * size
	end := min(start+size, total)
	return Page[T]{Items: items[start:end], Page: page, TotalPages: pages, Total: total}
}

// fold приводит регистр по Unicode; Caser хранит состояние, поэтому новый на каждый вызов
func fold(s string) string {
	return cases.Fold().String(s)
}

// text строковое представление значения поля для поиска и фильтра
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(time.DateOnly)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// compare упорядочивает значения одного поля; строки и разнотипные значения
// сравниваются по французским правилам сортировки без учёта регистра
func compare(col *collate.Collator, a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return col.CompareString(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp.Compare(boolRank(x), boolRank(y))
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return col.CompareString(text(a), text(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

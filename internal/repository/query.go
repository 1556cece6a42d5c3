package repository

import (
	"fmt"
	"strings"
)

// whereBuilder собирает условие WHERE, нумеруя плейсхолдеры ? по порядку аргументов.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, vals ...any) {
	for _, v := range vals {
		w.args = append(w.args, v)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// next возвращает плейсхолдер для следующего аргумента и добавляет его.
func (w *whereBuilder) next(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

package entitlements

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Limits - числовые лимиты фичи. Отсутствующий ключ означает "без лимита".
type Limits map[string]int64

// ParseLimits разбирает JSON-объект лимитов. Нецелые значения (строки,
// bool, дробные числа) отбрасываются, их ключи возвращаются в dropped.
func ParseLimits(raw []byte) (Limits, []string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Limits{}, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, nil, fmt.Errorf("decode limits: %w", err)
	}

	limits := make(Limits, len(values))
	var dropped []string
	for key, v := range values {
		n, ok := toInt64(v)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		limits[key] = n
	}
	sort.Strings(dropped)
	return limits, dropped, nil
}

func toInt64(v interface{}) (int64, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return n, true
	}
	// 5000.0 допустимо, 2.5 - нет
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Get возвращает лимит и признак его наличия
func (l Limits) Get(key string) (int64, bool) {
	v, ok := l[key]
	return v, ok
}

// Allows проверяет, что used еще не достиг лимита
func (l Limits) Allows(key string, used int64) bool {
	v, ok := l[key]
	if !ok {
		return true
	}
	return used < v
}

func (l Limits) Clone() Limits {
	cp := make(Limits, len(l))
	for k, v := range l {
		cp[k] = v
	}
	return cp
}

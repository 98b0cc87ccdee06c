package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ListMeta пагинация из конверта {"data": [...], "total", "page", "limit"}.
// Для ответа голым массивом Total равен длине массива.
type ListMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type listResult[T any] struct {
	items []T
	meta  ListMeta
}

func decodeList[T any](raw json.RawMessage) (listResult[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return listResult[T]{items: []T{}}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return listResult[T]{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return listResult[T]{items: items, meta: ListMeta{Total: len(items)}}, nil
	}
	var env struct {
		Data []T `json:"data"`
		ListMeta
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return listResult[T]{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	if env.Total == 0 {
		env.Total = len(env.Data)
	}
	return listResult[T]{items: env.Data, meta: env.ListMeta}, nil
}

func decodeOne[T any](raw json.RawMessage) (T, error) {
	var out T
	obj, err := unwrapData(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(obj, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// unwrapData возвращает JSON-объект сущности, снимая конверт {"data": {...}}, если он есть
func unwrapData(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrDecode)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if data, ok := env["data"]; ok {
		if d := bytes.TrimSpace(data); len(d) > 0 && d[0] == '{' {
			return d, nil
		}
	}
	return trimmed, nil
}

func encode(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode patch: %w", err)
	}
	return b, nil
}

// shallowMerge накладывает поля верхнего уровня overlay на base.
// Поле "id" результата всегда равно id: overlay не может переименовать сущность.
func shallowMerge[T any](base T, overlay json.RawMessage, id int64) (T, error) {
	var out T
	baseRaw, err := json.Marshal(base)
	if err != nil {
		return out, fmt.Errorf("store: encode cached entity: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(baseRaw, &fields); err != nil {
		return out, fmt.Errorf("store: cached entity is not an object: %w", err)
	}
	var over map[string]json.RawMessage
	if err := json.Unmarshal(overlay, &over); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	for k, v := range over {
		fields[k] = v
	}
	fields["id"] = json.RawMessage(strconv.FormatInt(id, 10))
	merged, err := json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("store: encode merged entity: %w", err)
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

package api

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
)

// Meta is the pagination block of a list answer.
type Meta struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// envelope is the common answer shape: {data, meta, message}.
type envelope struct {
	Data    jx.Raw
	Meta    *Meta
	Message string
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return env, errors.Errorf("unexpected %s at top level", d.Next())
	}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "data":
			raw, err := d.RawAppend(nil)
			if err != nil {
				return errors.Wrap(err, "data")
			}
			env.Data = raw
		case "meta":
			if d.Next() == jx.Null {
				return d.Null()
			}
			m, err := decodeMeta(d)
			if err != nil {
				return errors.Wrap(err, "meta")
			}
			env.Meta = &m
		case "message":
			if d.Next() != jx.String {
				return d.Skip()
			}
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "message")
			}
			env.Message = s
		default:
			return d.Skip()
		}
		return nil
	})
	return env, err
}

func decodeMeta(d *jx.Decoder) (Meta, error) {
	var m Meta
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var target *int
		switch string(key) {
		case "total":
			target = &m.Total
		case "page":
			target = &m.Page
		case "limit":
			target = &m.Limit
		case "totalPages":
			target = &m.TotalPages
		default:
			return d.Skip()
		}
		if d.Next() != jx.Number {
			return d.Skip()
		}
		n, err := d.Num()
		if err != nil {
			return err
		}
		v, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return err
			}
			v = int64(f)
		}
		*target = int(v)
		return nil
	})
	return m, err
}

// errorMessage extracts "message" from an error body, tolerating bodies that
// are not JSON at all.
func errorMessage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return ""
	}
	return env.Message
}

// decodeData decodes the data member into a domain value. Domain types carry
// their own json tags.
func decodeData(raw jx.Raw, out any) error {
	if raw.Type() == jx.Null {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// decodeList decodes a list answer. Answers without meta are a single page.
func decodeList[T any](data []byte, q listquery.Query) (listquery.Result[T], error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return listquery.Result[T]{}, err
	}
	var items []T
	if len(env.Data) > 0 {
		if err := decodeData(env.Data, &items); err != nil {
			return listquery.Result[T]{}, errors.Wrap(err, "data")
		}
	}
	if items == nil {
		items = []T{}
	}

	if env.Meta == nil {
		return listquery.Result[T]{
			Items:      items,
			Page:       1,
			PageSize:   len(items),
			TotalPages: listquery.TotalPages(len(items), len(items)),
			TotalItems: len(items),
		}, nil
	}

	m := env.Meta
	res := listquery.Result[T]{
		Items:      items,
		Page:       m.Page,
		PageSize:   m.Limit,
		TotalPages: m.TotalPages,
		TotalItems: m.Total,
	}
	if res.Page < 1 {
		res.Page = q.Page
	}
	if res.PageSize < 1 {
		res.PageSize = q.PageSize
	}
	if res.TotalPages < 1 {
		res.TotalPages = listquery.TotalPages(res.TotalItems, res.PageSize)
	}
	return res, nil
}

// writeDecimal writes d as a JSON number.
func writeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func writeOptionalStr(e *jx.Encoder, name, v string) {
	if v == "" {
		return
	}
	e.FieldStart(name)
	e.Str(v)
}

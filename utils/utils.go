package utils

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NestedValue resolves a dotted path such as "o._id" against doc by looking
// up one key per segment. The second return is false as soon as a segment is
// missing or the value at that point is not a document.
func NestedValue(doc interface{}, path string) (interface{}, bool) {
	current := doc
	for _, key := range strings.Split(path, ".") {
		next, ok := lookup(current, key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func lookup(doc interface{}, key string) (interface{}, bool) {
	switch d := doc.(type) {
	case bson.D:
		for _, e := range d {
			if e.Key == key {
				return e.Value, true
			}
		}
	case bson.M:
		v, ok := d[key]
		return v, ok
	case map[string]interface{}:
		v, ok := d[key]
		return v, ok
	case bson.Raw:
		v, err := d.LookupErr(key)
		if err != nil {
			return nil, false
		}
		return v, true
	case bson.RawValue:
		if sub, ok := d.DocumentOK(); ok {
			return lookup(sub, key)
		}
	case bson.A:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(d) {
			return nil, false
		}
		return d[i], true
	}
	return nil, false
}

// ParseTimestamp reads a logical timestamp written either as "t,i" or as a
// JSON object {"t": ..., "i": ...}.
func ParseTimestamp(s string) (primitive.Timestamp, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var ts struct {
			T uint32 `json:"t"`
			I uint32 `json:"i"`
		}
		if err := json.Unmarshal([]byte(s), &ts); err != nil {
			return primitive.Timestamp{}, errors.Wrapf(err, "parsing timestamp '%s'", s)
		}
		return primitive.Timestamp{T: ts.T, I: ts.I}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return primitive.Timestamp{}, errors.Errorf("timestamp '%s' must be 't,i' or {\"t\": t, \"i\": i}", s)
	}
	t, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return primitive.Timestamp{}, errors.Wrapf(err, "parsing seconds of timestamp '%s'", s)
	}
	i, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return primitive.Timestamp{}, errors.Wrapf(err, "parsing increment of timestamp '%s'", s)
	}
	return primitive.Timestamp{T: uint32(t), I: uint32(i)}, nil
}

// ParseDocument reads a relaxed or canonical extended JSON document, keeping
// field order.
func ParseDocument(s string) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing document '%s'", s)
	}
	return doc, nil
}

// ParseID reads a document _id given on the command line. Integers become
// int64, which the server compares numerically against any stored number
// type; anything else stays a string.
func ParseID(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

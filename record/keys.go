package record

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"

	"readfile/types"
)

// Keyer derives the record key for a line.
type Keyer func(l types.Line) (string, error)

const jsonPathPrefix = "jsonpath:"

// ParseKeyStrategy resolves a strategy name to a Keyer.
//
//	line            key is the line text (default)
//	none            no key, the broker spreads records
//	sequence        key is the line number
//	hash            key is the hex SHA-256 of the line
//	uuid            key is a random UUID
//	jsonpath:<expr> key is the value at expr in the line parsed as JSON
func ParseKeyStrategy(name string) (Keyer, error) {
	name = strings.TrimSpace(name)

	switch strings.ToLower(name) {
	case "", "line":
		return func(l types.Line) (string, error) { return l.Text, nil }, nil
	case "none":
		return func(types.Line) (string, error) { return "", nil }, nil
	case "sequence":
		return func(l types.Line) (string, error) { return strconv.FormatInt(l.Number, 10), nil }, nil
	case "hash":
		return func(l types.Line) (string, error) {
			sum := sha256.Sum256([]byte(l.Text))
			return hex.EncodeToString(sum[:]), nil
		}, nil
	case "uuid":
		return func(types.Line) (string, error) { return uuid.New().String(), nil }, nil
	}

	if strings.HasPrefix(strings.ToLower(name), jsonPathPrefix) {
		return jsonPathKeyer(strings.TrimSpace(name[len(jsonPathPrefix):]))
	}
	return nil, types.ConfigError("record.key_strategy", "KEY_STRATEGY", fmt.Sprintf("unknown strategy %q", name))
}

func jsonPathKeyer(expr string) (Keyer, error) {
	if expr == "" {
		return nil, types.ConfigError("record.key_strategy", "KEY_STRATEGY", "empty jsonpath expression")
	}
	eval, err := jsonpath.New(expr)
	if err != nil {
		return nil, types.ConfigError("record.key_strategy", "KEY_STRATEGY", fmt.Sprintf("jsonpath %q: %v", expr, err))
	}

	return func(l types.Line) (string, error) {
		var doc any
		if err := json.Unmarshal([]byte(l.Text), &doc); err != nil {
			return "", fmt.Errorf("line %d is not valid JSON: %w", l.Number, err)
		}
		v, err := eval(context.Background(), doc)
		if err != nil {
			return "", fmt.Errorf("line %d: jsonpath %s: %w", l.Number, expr, err)
		}
		return stringify(v)
	}, nil
}

func stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

package grpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/natpio/nasz-budzet/internal/domain"
)

// request reads typed fields out of a Struct message
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(in *structpb.Struct) request {
	return request{fields: in.GetFields()}
}

// str returns the field as text; numbers are formatted without exponent
func (r request) str(key string) string {
	v, ok := r.fields[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	}
	return ""
}

func (r request) required(key string) (string, error) {
	s := r.str(key)
	if s == "" {
		return "", status.Errorf(codes.InvalidArgument, "missing %s", key)
	}
	return s, nil
}

func (r request) decimal(key string) (decimal.Decimal, error) {
	s, err := r.required(key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return d, nil
}

func (r request) period(key string) (domain.Period, error) {
	s, err := r.required(key)
	if err != nil {
		return domain.Period{}, err
	}
	p, err := domain.ParsePeriod(s)
	if err != nil {
		return domain.Period{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
	}
	return p, nil
}

func (r request) uuid(key string) (uuid.UUID, error) {
	s, err := r.required(key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return id, nil
}

func (r request) kind(key string) (domain.Kind, error) {
	s, err := r.required(key)
	if err != nil {
		return "", err
	}
	k, err := domain.ParseKind(s)
	if err != nil {
		return "", status.Errorf(codes.InvalidArgument, "%v", err)
	}
	return k, nil
}

func (r request) date(key string) (time.Time, error) {
	s, err := r.required(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s, expected YYYY-MM-DD: %v", key, err)
	}
	return t, nil
}

func (r request) int(key string) (int, error) {
	s, err := r.required(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s: must be a whole number", key)
	}
	return n, nil
}

// toStruct converts a JSON-tagged value into a Struct message.
// Decimals keep their exact string form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to build response struct: %w", err)
	}
	return out, nil
}

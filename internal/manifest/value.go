package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

// ValueKind 配置值的种类标签
type ValueKind string

const (
	KindString          ValueKind = "string"
	KindInteger         ValueKind = "integer"
	KindUnsignedInteger ValueKind = "unsigned integer"
	KindFloat           ValueKind = "float"
	KindBoolean         ValueKind = "boolean"
	KindEnum            ValueKind = "enum"
)

/**
 * ConfigurableValue 带类型标签的配置值
 * @description
 * - Tagged union over string/integer/unsigned integer/float/boolean/enum
 * - Immutable once constructed, compared by structural equality
 * - The enum variant carries the selected option tag as a string
 */
type ConfigurableValue struct {
	kind       ValueKind
	stringVal  string
	intVal     int32
	uintVal    uint32
	floatVal   float32
	booleanVal bool
}

func NewStringValue(v string) ConfigurableValue {
	return ConfigurableValue{kind: KindString, stringVal: v}
}

func NewIntegerValue(v int32) ConfigurableValue {
	return ConfigurableValue{kind: KindInteger, intVal: v}
}

func NewUnsignedValue(v uint32) ConfigurableValue {
	return ConfigurableValue{kind: KindUnsignedInteger, uintVal: v}
}

func NewFloatValue(v float32) ConfigurableValue {
	return ConfigurableValue{kind: KindFloat, floatVal: v}
}

func NewBooleanValue(v bool) ConfigurableValue {
	return ConfigurableValue{kind: KindBoolean, booleanVal: v}
}

func NewEnumValue(tag string) ConfigurableValue {
	return ConfigurableValue{kind: KindEnum, stringVal: tag}
}

func (v ConfigurableValue) Kind() ValueKind {
	return v.kind
}

func (v ConfigurableValue) Equal(other ConfigurableValue) bool {
	return v == other
}

// String renders the payload in properties file form (no quoting).
func (v ConfigurableValue) String() string {
	switch v.kind {
	case KindString, KindEnum:
		return v.stringVal
	case KindInteger:
		return strconv.FormatInt(int64(v.intVal), 10)
	case KindUnsignedInteger:
		return strconv.FormatUint(uint64(v.uintVal), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.floatVal), 'g', -1, 32)
	case KindBoolean:
		return strconv.FormatBool(v.booleanVal)
	}
	return ""
}

func (v ConfigurableValue) TryAsString() (string, error) {
	if v.kind != KindString {
		return "", lserr.BadRequest("expected %s, found %s", KindString, v.kind)
	}
	return v.stringVal, nil
}

func (v ConfigurableValue) TryAsInteger() (int32, error) {
	if v.kind != KindInteger {
		return 0, lserr.BadRequest("expected %s, found %s", KindInteger, v.kind)
	}
	return v.intVal, nil
}

func (v ConfigurableValue) TryAsUnsigned() (uint32, error) {
	if v.kind != KindUnsignedInteger {
		return 0, lserr.BadRequest("expected %s, found %s", KindUnsignedInteger, v.kind)
	}
	return v.uintVal, nil
}

func (v ConfigurableValue) TryAsFloat() (float32, error) {
	if v.kind != KindFloat {
		return 0, lserr.BadRequest("expected %s, found %s", KindFloat, v.kind)
	}
	return v.floatVal, nil
}

func (v ConfigurableValue) TryAsBoolean() (bool, error) {
	if v.kind != KindBoolean {
		return false, lserr.BadRequest("expected %s, found %s", KindBoolean, v.kind)
	}
	return v.booleanVal, nil
}

func (v ConfigurableValue) TryAsEnum() (string, error) {
	if v.kind != KindEnum {
		return "", lserr.BadRequest("expected %s, found %s", KindEnum, v.kind)
	}
	return v.stringVal, nil
}

/**
 * InferType 从裸值推导出最宽松的类型描述
 * @description
 * - A number is unbounded, a string has no regex, an enum has no options
 * - Callers must be aware the result is unconstrained, not the "real" constraint
 */
func (v ConfigurableValue) InferType() ConfigurableValueType {
	switch v.kind {
	case KindInteger:
		return IntegerType(nil, nil)
	case KindUnsignedInteger:
		return UnsignedType(nil, nil)
	case KindFloat:
		return FloatType(nil, nil)
	case KindBoolean:
		return BooleanType()
	case KindEnum:
		return EnumType(nil)
	default:
		return StringType(nil)
	}
}

type valueWire struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (v ConfigurableValue) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.kind {
	case KindString, KindEnum:
		payload = v.stringVal
	case KindInteger:
		payload = v.intVal
	case KindUnsignedInteger:
		payload = v.uintVal
	case KindFloat:
		payload = v.floatVal
	case KindBoolean:
		payload = v.booleanVal
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueWire{Type: v.kind, Value: raw})
}

func (v *ConfigurableValue) UnmarshalJSON(data []byte) error {
	var wire valueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case KindString, KindEnum:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return err
		}
		if wire.Type == KindString {
			*v = NewStringValue(s)
		} else {
			*v = NewEnumValue(s)
		}
	case KindInteger:
		var i int32
		if err := json.Unmarshal(wire.Value, &i); err != nil {
			return err
		}
		*v = NewIntegerValue(i)
	case KindUnsignedInteger:
		var u uint32
		if err := json.Unmarshal(wire.Value, &u); err != nil {
			return err
		}
		*v = NewUnsignedValue(u)
	case KindFloat:
		var f float32
		if err := json.Unmarshal(wire.Value, &f); err != nil {
			return err
		}
		*v = NewFloatValue(f)
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return err
		}
		*v = NewBooleanValue(b)
	default:
		return fmt.Errorf("unknown value kind '%s'", wire.Type)
	}
	return nil
}

/**
 * ConfigurableValueType 配置值的类型描述，带校验约束
 * @description
 * - Mirrors ConfigurableValue's shapes but carries constraints instead of data
 * - String may carry a regex, numbers carry optional inclusive min/max bounds,
 *   enum carries the allowed option tags, boolean has no constraint
 */
type ConfigurableValueType struct {
	kind     ValueKind
	regex    *string
	intMin   *int32
	intMax   *int32
	uintMin  *uint32
	uintMax  *uint32
	floatMin *float32
	floatMax *float32
	options  []string
}

func StringType(regex *string) ConfigurableValueType {
	return ConfigurableValueType{kind: KindString, regex: regex}
}

func IntegerType(min, max *int32) ConfigurableValueType {
	return ConfigurableValueType{kind: KindInteger, intMin: min, intMax: max}
}

func UnsignedType(min, max *uint32) ConfigurableValueType {
	return ConfigurableValueType{kind: KindUnsignedInteger, uintMin: min, uintMax: max}
}

func FloatType(min, max *float32) ConfigurableValueType {
	return ConfigurableValueType{kind: KindFloat, floatMin: min, floatMax: max}
}

func BooleanType() ConfigurableValueType {
	return ConfigurableValueType{kind: KindBoolean}
}

func EnumType(options []string) ConfigurableValueType {
	return ConfigurableValueType{kind: KindEnum, options: append([]string{}, options...)}
}

func (t ConfigurableValueType) Kind() ValueKind {
	return t.kind
}

func (t ConfigurableValueType) String() string {
	return string(t.kind)
}

/**
 * TypeCheck 对(类型,值)做结构化校验
 * @param {ConfigurableValue} value - Candidate value
 * @returns {error} nil on success, BadRequest describing the violation otherwise
 * @description
 * - Any variant mismatch between type and value is a type mismatch error
 *   naming both the expected and the found kind
 * - String: value must match the regex when one is present; a regex that fails
 *   to compile is itself a validation error, not a panic
 * - Numbers: each present bound is an inclusive bound checked independently
 * - Enum: the tag must be literally present in the allowed options
 */
func (t ConfigurableValueType) TypeCheck(value ConfigurableValue) error {
	if t.kind != value.kind {
		return lserr.BadRequest("type mismatch: expected %s, found %s", t.kind, value.kind)
	}
	switch t.kind {
	case KindString:
		if t.regex == nil {
			return nil
		}
		re, err := regexp.Compile(*t.regex)
		if err != nil {
			return lserr.BadRequest("invalid regex '%s': %v", *t.regex, err)
		}
		if !re.MatchString(value.stringVal) {
			return lserr.BadRequest("value '%s' does not match regex '%s'", value.stringVal, *t.regex)
		}
	case KindInteger:
		if t.intMin != nil && value.intVal < *t.intMin {
			return lserr.BadRequest("value %d is smaller than minimum %d", value.intVal, *t.intMin)
		}
		if t.intMax != nil && value.intVal > *t.intMax {
			return lserr.BadRequest("value %d is larger than maximum %d", value.intVal, *t.intMax)
		}
	case KindUnsignedInteger:
		if t.uintMin != nil && value.uintVal < *t.uintMin {
			return lserr.BadRequest("value %d is smaller than minimum %d", value.uintVal, *t.uintMin)
		}
		if t.uintMax != nil && value.uintVal > *t.uintMax {
			return lserr.BadRequest("value %d is larger than maximum %d", value.uintVal, *t.uintMax)
		}
	case KindFloat:
		if t.floatMin != nil && value.floatVal < *t.floatMin {
			return lserr.BadRequest("value %g is smaller than minimum %g", value.floatVal, *t.floatMin)
		}
		if t.floatMax != nil && value.floatVal > *t.floatMax {
			return lserr.BadRequest("value %g is larger than maximum %g", value.floatVal, *t.floatMax)
		}
	case KindBoolean:
		// no constraint
	case KindEnum:
		for _, opt := range t.options {
			if opt == value.stringVal {
				return nil
			}
		}
		return lserr.BadRequest("value '%s' is not one of the allowed options %v", value.stringVal, t.options)
	}
	return nil
}

type valueTypeWire struct {
	Type     ValueKind `json:"type"`
	Regex    *string   `json:"regex,omitempty"`
	IntMin   *int32    `json:"min,omitempty"`
	IntMax   *int32    `json:"max,omitempty"`
	UintMin  *uint32   `json:"umin,omitempty"`
	UintMax  *uint32   `json:"umax,omitempty"`
	FloatMin *float32  `json:"fmin,omitempty"`
	FloatMax *float32  `json:"fmax,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

func (t ConfigurableValueType) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueTypeWire{
		Type:     t.kind,
		Regex:    t.regex,
		IntMin:   t.intMin,
		IntMax:   t.intMax,
		UintMin:  t.uintMin,
		UintMax:  t.uintMax,
		FloatMin: t.floatMin,
		FloatMax: t.floatMax,
		Options:  t.options,
	})
}

func (t *ConfigurableValueType) UnmarshalJSON(data []byte) error {
	var wire valueTypeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case KindString, KindInteger, KindUnsignedInteger, KindFloat, KindBoolean, KindEnum:
	default:
		return fmt.Errorf("unknown value kind '%s'", wire.Type)
	}
	*t = ConfigurableValueType{
		kind:     wire.Type,
		regex:    wire.Regex,
		intMin:   wire.IntMin,
		intMax:   wire.IntMax,
		uintMin:  wire.UintMin,
		uintMax:  wire.UintMax,
		floatMin: wire.FloatMin,
		floatMax: wire.FloatMax,
		options:  wire.Options,
	}
	return nil
}

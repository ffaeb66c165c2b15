package manifest

import (
	"strings"
	"testing"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

func strptr(s string) *string   { return &s }
func i32ptr(v int32) *int32     { return &v }
func u32ptr(v uint32) *uint32   { return &v }
func f32ptr(v float32) *float32 { return &v }

/**
 * TestTypeCheckCrossKindMismatch 验证类型与值的变体不一致时一律校验失败
 */
func TestTypeCheckCrossKindMismatch(t *testing.T) {
	types := map[ValueKind]ConfigurableValueType{
		KindString:          StringType(nil),
		KindInteger:         IntegerType(nil, nil),
		KindUnsignedInteger: UnsignedType(nil, nil),
		KindFloat:           FloatType(nil, nil),
		KindBoolean:         BooleanType(),
		KindEnum:            EnumType([]string{"a"}),
	}
	values := map[ValueKind]ConfigurableValue{
		KindString:          NewStringValue("x"),
		KindInteger:         NewIntegerValue(1),
		KindUnsignedInteger: NewUnsignedValue(1),
		KindFloat:           NewFloatValue(1),
		KindBoolean:         NewBooleanValue(true),
		KindEnum:            NewEnumValue("a"),
	}

	for tk, typ := range types {
		for vk, val := range values {
			err := typ.TypeCheck(val)
			if tk == vk {
				if err != nil {
					t.Errorf("TypeCheck(%s, %s) unexpectedly failed: %v", tk, vk, err)
				}
				continue
			}
			if err == nil {
				t.Errorf("TypeCheck(%s, %s) should fail with a type mismatch", tk, vk)
				continue
			}
			if !strings.Contains(err.Error(), "type mismatch") {
				t.Errorf("TypeCheck(%s, %s) error should name a type mismatch, got: %v", tk, vk, err)
			}
			if !lserr.IsKind(err, lserr.KindBadRequest) {
				t.Errorf("TypeCheck(%s, %s) should be a BadRequest, got kind %s", tk, vk, lserr.KindOf(err))
			}
		}
	}
}

/**
 * TestTypeCheckIntegerBounds 验证整数的边界为闭区间，且缺失侧不受限
 */
func TestTypeCheckIntegerBounds(t *testing.T) {
	typ := IntegerType(i32ptr(3), i32ptr(7))
	cases := []struct {
		value int32
		ok    bool
	}{
		{2, false}, {3, true}, {5, true}, {7, true}, {8, false},
	}
	for _, c := range cases {
		err := typ.TypeCheck(NewIntegerValue(c.value))
		if c.ok && err != nil {
			t.Errorf("value %d inside [3,7] should pass, got: %v", c.value, err)
		}
		if !c.ok && err == nil {
			t.Errorf("value %d outside [3,7] should fail", c.value)
		}
	}

	// 只有下界
	minOnly := IntegerType(i32ptr(0), nil)
	if err := minOnly.TypeCheck(NewIntegerValue(1 << 30)); err != nil {
		t.Errorf("missing max bound should be unconstrained, got: %v", err)
	}
	if err := minOnly.TypeCheck(NewIntegerValue(-1)); err == nil {
		t.Error("value below min bound should fail")
	}
}

func TestTypeCheckUnsignedAndFloatBounds(t *testing.T) {
	port := UnsignedType(u32ptr(0), u32ptr(65535))
	if err := port.TypeCheck(NewUnsignedValue(25565)); err != nil {
		t.Errorf("port 25565 should pass: %v", err)
	}
	if err := port.TypeCheck(NewUnsignedValue(70000)); err == nil {
		t.Error("port 70000 should fail the max bound")
	}

	ratio := FloatType(f32ptr(0), f32ptr(1))
	if err := ratio.TypeCheck(NewFloatValue(0.5)); err != nil {
		t.Errorf("ratio 0.5 should pass: %v", err)
	}
	if err := ratio.TypeCheck(NewFloatValue(1.5)); err == nil {
		t.Error("ratio 1.5 should fail the max bound")
	}
}

func TestTypeCheckStringRegex(t *testing.T) {
	typ := StringType(strptr("^[a-z]+$"))
	if err := typ.TypeCheck(NewStringValue("abc")); err != nil {
		t.Errorf("'abc' should match ^[a-z]+$: %v", err)
	}
	if err := typ.TypeCheck(NewStringValue("ABC")); err == nil {
		t.Error("'ABC' should not match ^[a-z]+$")
	}
	// 没有regex时任意字符串都合法
	if err := StringType(nil).TypeCheck(NewStringValue("anything at all")); err != nil {
		t.Errorf("absent regex should accept any string: %v", err)
	}
	// 非法regex本身是校验错误，而不是panic
	bad := StringType(strptr("((("))
	if err := bad.TypeCheck(NewStringValue("abc")); err == nil {
		t.Error("an invalid regex should surface as a validation error")
	} else if !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("invalid regex should be a BadRequest, got kind %s", lserr.KindOf(err))
	}
}

func TestTypeCheckEnumMembership(t *testing.T) {
	typ := EnumType([]string{"survival", "creative", "adventure"})
	if err := typ.TypeCheck(NewEnumValue("creative")); err != nil {
		t.Errorf("'creative' is an allowed option: %v", err)
	}
	if err := typ.TypeCheck(NewEnumValue("hardcore")); err == nil {
		t.Error("'hardcore' is not an allowed option and should fail")
	}
}

func TestInferTypeIsUnconstrained(t *testing.T) {
	cases := []struct {
		value ConfigurableValue
		kind  ValueKind
	}{
		{NewStringValue("x"), KindString},
		{NewIntegerValue(-5), KindInteger},
		{NewUnsignedValue(5), KindUnsignedInteger},
		{NewFloatValue(1.5), KindFloat},
		{NewBooleanValue(true), KindBoolean},
		{NewEnumValue("a"), KindEnum},
	}
	for _, c := range cases {
		typ := c.value.InferType()
		if typ.Kind() != c.kind {
			t.Errorf("InferType kind mismatch: expected %s, got %s", c.kind, typ.Kind())
		}
		// 推导出的类型必须接受该值本身
		if err := typ.TypeCheck(c.value); err != nil && c.kind != KindEnum {
			t.Errorf("inferred type for %s should accept the value: %v", c.kind, err)
		}
	}
	// 推导出的整数类型没有边界
	typ := NewIntegerValue(0).InferType()
	if err := typ.TypeCheck(NewIntegerValue(1<<31 - 1)); err != nil {
		t.Errorf("inferred integer type should be unbounded: %v", err)
	}
}

func TestTryAsAccessors(t *testing.T) {
	v := NewIntegerValue(42)
	if got, err := v.TryAsInteger(); err != nil || got != 42 {
		t.Errorf("TryAsInteger failed: %v, got %d", err, got)
	}
	if _, err := v.TryAsString(); err == nil {
		t.Error("TryAsString on an integer should fail")
	} else if !strings.Contains(err.Error(), "expected string") || !strings.Contains(err.Error(), "found integer") {
		t.Errorf("accessor error should name expected and found kinds, got: %v", err)
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	values := []ConfigurableValue{
		NewStringValue("hello"),
		NewIntegerValue(-3),
		NewUnsignedValue(25565),
		NewFloatValue(0.25),
		NewBooleanValue(true),
		NewEnumValue("survival"),
	}
	for _, v := range values {
		data, err := v.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %s failed: %v", v.Kind(), err)
		}
		var back ConfigurableValue
		if err := back.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal %s failed: %v", v.Kind(), err)
		}
		if !v.Equal(back) {
			t.Errorf("round trip changed the value: %s -> %s", v.String(), back.String())
		}
	}
}

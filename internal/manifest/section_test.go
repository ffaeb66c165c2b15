package manifest

import (
	"testing"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

func propertiesSection(t *testing.T) *SectionManifest {
	t.Helper()
	sec := NewSection("server_properties", "Server Properties", "settings from server.properties")
	settings := []SettingManifest{
		NewRequiredSetting("server-port", "Server Port", "listen port", NewUnsignedValue(25565), nil, false, true),
		NewRequiredSetting("gamemode", "Game Mode", "default gamemode", NewStringValue("survival"), nil, false, true),
		NewRequiredSetting("max-players", "Max Players", "player cap", NewUnsignedValue(20), nil, false, true),
	}
	for _, s := range settings {
		if err := sec.AddSetting(s); err != nil {
			t.Fatalf("AddSetting(%s) failed: %v", s.ID(), err)
		}
	}
	return sec
}

/**
 * TestAddAndSetSettingAsymmetry 验证新增与覆盖两条路径的存在性约束互为镜像
 */
func TestAddAndSetSettingAsymmetry(t *testing.T) {
	sec := propertiesSection(t)

	// 重复新增冲突
	dup := NewRequiredSetting("server-port", "Server Port", "listen port", NewUnsignedValue(1), nil, false, true)
	if err := sec.AddSetting(dup); err == nil {
		t.Fatal("AddSetting with an existing id should fail")
	} else if !lserr.IsKind(err, lserr.KindAlreadyExists) {
		t.Errorf("duplicate add should be AlreadyExists, got kind %s", lserr.KindOf(err))
	}

	// 覆盖不存在的项找不到
	missing := NewRequiredSetting("no-such", "Missing", "", NewStringValue("x"), nil, false, true)
	if err := sec.SetSetting(missing); err == nil {
		t.Fatal("SetSetting with an unknown id should fail")
	} else if !lserr.IsKind(err, lserr.KindNotFound) {
		t.Errorf("overwrite of unknown id should be NotFound, got kind %s", lserr.KindOf(err))
	}

	// 覆盖已有的项成功
	repl := NewRequiredSetting("server-port", "Server Port", "listen port", NewUnsignedValue(25575), nil, false, true)
	if err := sec.SetSetting(repl); err != nil {
		t.Fatalf("SetSetting with an existing id should succeed: %v", err)
	}
	got, ok := sec.GetSetting("server-port")
	if !ok || got.Value() == nil || !got.Value().Equal(NewUnsignedValue(25575)) {
		t.Error("SetSetting should replace the stored setting")
	}
}

func TestSettingOrderIsInsertionOrder(t *testing.T) {
	sec := propertiesSection(t)
	want := []string{"server-port", "gamemode", "max-players"}
	got := sec.SettingIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d settings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// 覆盖不改变顺序
	repl := NewRequiredSetting("gamemode", "Game Mode", "default gamemode", NewStringValue("creative"), nil, false, true)
	if err := sec.SetSetting(repl); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	got = sec.SettingIDs()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("after overwrite, position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestUpdateSettingTypeChecks(t *testing.T) {
	sec := NewSection("section", "Section", "")
	s, err := NewSettingWithType("count", "Count", "",
		ptrValue(NewIntegerValue(5)), IntegerType(i32ptr(0), i32ptr(10)), nil, false, true)
	if err != nil {
		t.Fatalf("constructing the setting failed: %v", err)
	}
	if err := sec.AddSetting(s); err != nil {
		t.Fatalf("AddSetting failed: %v", err)
	}

	if err := sec.UpdateSetting("count", NewIntegerValue(11)); err == nil {
		t.Fatal("out-of-bounds update should fail")
	}
	if err := sec.UpdateSetting("missing", NewIntegerValue(1)); err == nil {
		t.Fatal("update of an unknown setting should fail")
	} else if !lserr.IsKind(err, lserr.KindNotFound) {
		t.Errorf("unknown setting should be NotFound, got kind %s", lserr.KindOf(err))
	}
	if err := sec.UpdateSetting("count", NewIntegerValue(7)); err != nil {
		t.Fatalf("in-bounds update should succeed: %v", err)
	}
}

func TestSectionJSONRoundTripKeepsOrder(t *testing.T) {
	sec := propertiesSection(t)
	data, err := sec.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back SectionManifest
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.ID() != "server_properties" || back.Len() != sec.Len() {
		t.Error("round trip changed the section shape")
	}
	want := sec.SettingIDs()
	got := back.SettingIDs()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("round trip changed setting order at %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

package manifest

import (
	"testing"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

func serverManifest(t *testing.T) *ConfigurableManifest {
	t.Helper()
	m := NewConfigurableManifest(true, true, false, false)

	general := NewSection("general", "General", "instance level settings")
	nameSetting, err := NewSettingWithType("name", "Name", "server name",
		ptrValue(NewStringValue("lodestone")), StringType(strptr("^[a-z]+$")), nil, false, true)
	if err != nil {
		t.Fatalf("constructing the name setting failed: %v", err)
	}
	if err := general.AddSetting(nameSetting); err != nil {
		t.Fatalf("AddSetting(name) failed: %v", err)
	}

	props := NewSection("server_properties", "Server Properties", "settings from server.properties")
	portSetting, err := NewSettingWithType("server-port", "Server Port", "listen port",
		ptrValue(NewUnsignedValue(25565)), UnsignedType(u32ptr(0), u32ptr(65535)), nil, false, true)
	if err != nil {
		t.Fatalf("constructing the port setting failed: %v", err)
	}
	if err := props.AddSetting(portSetting); err != nil {
		t.Fatalf("AddSetting(server-port) failed: %v", err)
	}

	if err := m.AddSection(general); err != nil {
		t.Fatalf("AddSection(general) failed: %v", err)
	}
	if err := m.AddSection(props); err != nil {
		t.Fatalf("AddSection(server_properties) failed: %v", err)
	}
	return m
}

func TestManifestLookupPaths(t *testing.T) {
	m := serverManifest(t)

	if _, ok := m.GetSection("general"); !ok {
		t.Error("section 'general' should be found")
	}
	if _, ok := m.GetSection("nope"); ok {
		t.Error("unknown section should not be found")
	}
	if s, ok := m.GetSetting("server_properties", "server-port"); !ok || s.ID() != "server-port" {
		t.Error("nested setting lookup should find server-port")
	}
	if _, ok := m.GetSetting("general", "server-port"); ok {
		t.Error("setting lookup must not cross section boundaries")
	}

	if err := m.AddSection(NewSection("general", "General", "")); err == nil {
		t.Error("duplicate AddSection should fail")
	} else if !lserr.IsKind(err, lserr.KindAlreadyExists) {
		t.Errorf("duplicate section should be AlreadyExists, got kind %s", lserr.KindOf(err))
	}
}

/**
 * TestRegexConstraintEndToEnd 验证正则约束在嵌套更新路径上依然生效
 */
func TestRegexConstraintEndToEnd(t *testing.T) {
	m := serverManifest(t)

	if err := m.UpdateSettingValue("general", "name", NewStringValue("abc")); err != nil {
		t.Fatalf("'abc' matches ^[a-z]+$ and should be accepted: %v", err)
	}
	if err := m.UpdateSettingValue("general", "name", NewStringValue("ABC")); err == nil {
		t.Fatal("'ABC' does not match ^[a-z]+$ and should be rejected")
	}
	got, _ := m.GetSetting("general", "name")
	if got.Value() == nil || !got.Value().Equal(NewStringValue("abc")) {
		t.Error("rejected update must leave the previous value in place")
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	m := serverManifest(t)

	candidate := ManifestValue{Sections: map[string]SectionValue{
		"general": {Settings: map[string]SettingValue{
			"name": {Value: ptrValue(NewStringValue("renamed"))},
		}},
		"server_properties": {Settings: map[string]SettingValue{
			"server-port": {Value: ptrValue(NewUnsignedValue(70000))}, // 越界
		}},
	}}

	if err := m.Apply(candidate); err == nil {
		t.Fatal("a candidate with one invalid value should fail as a whole")
	}
	name, _ := m.GetSetting("general", "name")
	if name.Value() == nil || !name.Value().Equal(NewStringValue("lodestone")) {
		t.Error("failed Apply must not write any of the candidate values")
	}

	candidate.Sections["server_properties"] = SectionValue{Settings: map[string]SettingValue{
		"server-port": {Value: ptrValue(NewUnsignedValue(25575))},
	}}
	if err := m.Apply(candidate); err != nil {
		t.Fatalf("a fully valid candidate should apply: %v", err)
	}
	port, _ := m.GetSetting("server_properties", "server-port")
	if port.Value() == nil || !port.Value().Equal(NewUnsignedValue(25575)) {
		t.Error("successful Apply should write all candidate values")
	}
}

func TestApplyRejectsUnknownTargets(t *testing.T) {
	m := serverManifest(t)

	unknownSection := ManifestValue{Sections: map[string]SectionValue{
		"nope": {Settings: map[string]SettingValue{"x": {Value: ptrValue(NewStringValue("a"))}}},
	}}
	if err := m.Apply(unknownSection); err == nil {
		t.Error("unknown section in a candidate should fail")
	} else if !lserr.IsKind(err, lserr.KindNotFound) {
		t.Errorf("unknown section should be NotFound, got kind %s", lserr.KindOf(err))
	}

	unknownSetting := ManifestValue{Sections: map[string]SectionValue{
		"general": {Settings: map[string]SettingValue{"nope": {Value: ptrValue(NewStringValue("a"))}}},
	}}
	if err := m.Apply(unknownSetting); err == nil {
		t.Error("unknown setting in a candidate should fail")
	}
}

func TestApplyRejectsImmutableTargets(t *testing.T) {
	m := serverManifest(t)
	frozen := NewSection("frozen", "Frozen", "settings fixed at creation")
	if err := frozen.AddSetting(NewRequiredSetting("level-seed", "Level Seed", "world seed",
		NewStringValue("8675309"), nil, false, false)); err != nil {
		t.Fatalf("AddSetting(level-seed) failed: %v", err)
	}
	if err := m.AddSection(frozen); err != nil {
		t.Fatalf("AddSection(frozen) failed: %v", err)
	}

	candidate := ManifestValue{Sections: map[string]SectionValue{
		"general": {Settings: map[string]SettingValue{
			"name": {Value: ptrValue(NewStringValue("renamed"))},
		}},
		"frozen": {Settings: map[string]SettingValue{
			"level-seed": {Value: ptrValue(NewStringValue("changed"))},
		}},
	}}

	err := m.Apply(candidate)
	if err == nil {
		t.Fatal("a candidate touching an immutable setting should fail as a whole")
	}
	if !lserr.IsKind(err, lserr.KindBadRequest) {
		t.Errorf("immutable violation should be BadRequest, got kind %s", lserr.KindOf(err))
	}
	name, _ := m.GetSetting("general", "name")
	if name.Value() == nil || !name.Value().Equal(NewStringValue("lodestone")) {
		t.Error("failed Apply must not write any of the candidate values")
	}
	seed, _ := m.GetSetting("frozen", "level-seed")
	if seed.Value() == nil || !seed.Value().Equal(NewStringValue("8675309")) {
		t.Error("the immutable setting itself must keep its value")
	}
}

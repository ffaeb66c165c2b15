package manifest

import (
	"encoding/json"

	"github.com/iancoleman/orderedmap"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

/**
 * ConfigurableManifest 实例可配置项的顶层注册表
 * @description
 * - Capability flags declare whether the instance implementation supports each
 *   Lodestone managed behavior (auto start, restart on crash, ...)
 * - Sections are kept in insertion order for deterministic rendering
 * - Constructed once per instance type at restore time, then kept in sync with
 *   the backing config file on every read/write cycle
 */
type ConfigurableManifest struct {
	autoStart         bool
	restartOnCrash    bool
	startOnConnection bool
	timeoutLastLeft   bool
	sections          *orderedmap.OrderedMap
}

func NewConfigurableManifest(autoStart, restartOnCrash, startOnConnection, timeoutLastLeft bool) *ConfigurableManifest {
	return &ConfigurableManifest{
		autoStart:         autoStart,
		restartOnCrash:    restartOnCrash,
		startOnConnection: startOnConnection,
		timeoutLastLeft:   timeoutLastLeft,
		sections:          orderedmap.New(),
	}
}

func (m *ConfigurableManifest) SupportsAutoStart() bool         { return m.autoStart }
func (m *ConfigurableManifest) SupportsRestartOnCrash() bool    { return m.restartOnCrash }
func (m *ConfigurableManifest) SupportsStartOnConnection() bool { return m.startOnConnection }
func (m *ConfigurableManifest) SupportsTimeoutLastLeft() bool   { return m.timeoutLastLeft }

func (m *ConfigurableManifest) AddSection(section *SectionManifest) error {
	if _, exists := m.sections.Get(section.ID()); exists {
		return lserr.AlreadyExists("section '%s' already exists", section.ID())
	}
	m.sections.Set(section.ID(), section)
	return nil
}

func (m *ConfigurableManifest) GetSection(sectionID string) (*SectionManifest, bool) {
	v, ok := m.sections.Get(sectionID)
	if !ok {
		return nil, false
	}
	return v.(*SectionManifest), true
}

// SectionIDs returns the section ids in insertion order.
func (m *ConfigurableManifest) SectionIDs() []string {
	return m.sections.Keys()
}

func (m *ConfigurableManifest) GetSetting(sectionID, settingID string) (*SettingManifest, bool) {
	section, ok := m.GetSection(sectionID)
	if !ok {
		return nil, false
	}
	return section.GetSetting(settingID)
}

// SetSetting replaces an existing setting inside the named section.
func (m *ConfigurableManifest) SetSetting(sectionID string, setting SettingManifest) error {
	section, ok := m.GetSection(sectionID)
	if !ok {
		return lserr.NotFound("section '%s' does not exist", sectionID)
	}
	return section.SetSetting(setting)
}

// InsertSetting inserts or replaces a setting inside the named section without
// the existence guard. Used when syncing a section from an on-disk file.
func (m *ConfigurableManifest) InsertSetting(sectionID string, setting SettingManifest) error {
	section, ok := m.GetSection(sectionID)
	if !ok {
		return lserr.NotFound("section '%s' does not exist", sectionID)
	}
	section.InsertSetting(setting)
	return nil
}

/**
 * SetSettingValue 设置(或清空)指定配置项的值
 * @returns {error} NotFound when section or setting is unknown, BadRequest on
 * the mutability/required/type rules
 */
func (m *ConfigurableManifest) SetSettingValue(sectionID, settingID string, value *ConfigurableValue) error {
	setting, ok := m.GetSetting(sectionID, settingID)
	if !ok {
		return lserr.NotFound("setting '%s/%s' does not exist", sectionID, settingID)
	}
	return setting.SetOptionalValue(value)
}

func (m *ConfigurableManifest) UpdateSettingValue(sectionID, settingID string, value ConfigurableValue) error {
	setting, ok := m.GetSetting(sectionID, settingID)
	if !ok {
		return lserr.NotFound("setting '%s/%s' does not exist", sectionID, settingID)
	}
	return setting.SetValue(value)
}

/**
 * ValidateManifest 递归校验一份候选批量更新
 * @description
 * - Every referenced section and setting must exist and type check before any
 *   value is applied, keeping multi-setting updates atomic
 */
func (m *ConfigurableManifest) ValidateManifest(candidate ManifestValue) error {
	for sectionID, sectionValue := range candidate.Sections {
		section, ok := m.GetSection(sectionID)
		if !ok {
			return lserr.NotFound("section '%s' does not exist", sectionID)
		}
		if err := section.ValidateSection(sectionValue); err != nil {
			return err
		}
	}
	return nil
}

/**
 * Apply 校验并提交一份候选批量更新
 * @description
 * - All-or-nothing: starts writing only after the whole candidate validated
 */
func (m *ConfigurableManifest) Apply(candidate ManifestValue) error {
	if err := m.ValidateManifest(candidate); err != nil {
		return err
	}
	for sectionID, sectionValue := range candidate.Sections {
		for settingID, settingValue := range sectionValue.Settings {
			if err := m.SetSettingValue(sectionID, settingID, settingValue.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

type manifestWire struct {
	AutoStart         bool                   `json:"auto_start"`
	RestartOnCrash    bool                   `json:"restart_on_crash"`
	StartOnConnection bool                   `json:"start_on_connection"`
	TimeoutLastLeft   bool                   `json:"timeout_last_left"`
	Sections          *orderedmap.OrderedMap `json:"setting_sections"`
}

func (m *ConfigurableManifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(manifestWire{
		AutoStart:         m.autoStart,
		RestartOnCrash:    m.restartOnCrash,
		StartOnConnection: m.startOnConnection,
		TimeoutLastLeft:   m.timeoutLastLeft,
		Sections:          m.sections,
	})
}

// SettingValue is one candidate value inside a bulk update.
type SettingValue struct {
	Value *ConfigurableValue `json:"value"`
}

// SectionValue groups candidate values by setting id.
type SectionValue struct {
	Settings map[string]SettingValue `json:"settings"`
}

// ManifestValue is the shape of a proposed bulk settings update.
type ManifestValue struct {
	Sections map[string]SectionValue `json:"setting_sections"`
}

func (v *ManifestValue) GetSetting(sectionID, settingID string) (*SettingValue, bool) {
	section, ok := v.Sections[sectionID]
	if !ok {
		return nil, false
	}
	setting, ok := section.Settings[settingID]
	if !ok {
		return nil, false
	}
	return &setting, true
}

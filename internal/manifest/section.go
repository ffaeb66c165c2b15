package manifest

import (
	"encoding/json"

	"github.com/iancoleman/orderedmap"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

/**
 * SectionManifest 按插入顺序保存一组配置项
 * @description
 * - Identity is by setting id, iteration order is insertion order so UIs
 *   render deterministically
 * - AddSetting is a pure insert guarded against duplicates (construction time),
 *   SetSetting a pure replace guarded against absence (update time)
 */
type SectionManifest struct {
	sectionID   string
	name        string
	description string
	settings    *orderedmap.OrderedMap
}

func NewSection(sectionID, name, description string) *SectionManifest {
	return &SectionManifest{
		sectionID:   sectionID,
		name:        name,
		description: description,
		settings:    orderedmap.New(),
	}
}

func (s *SectionManifest) ID() string          { return s.sectionID }
func (s *SectionManifest) Name() string        { return s.name }
func (s *SectionManifest) Description() string { return s.description }

func (s *SectionManifest) GetSetting(settingID string) (*SettingManifest, bool) {
	v, ok := s.settings.Get(settingID)
	if !ok {
		return nil, false
	}
	return v.(*SettingManifest), true
}

// SettingIDs returns the setting ids in insertion order.
func (s *SectionManifest) SettingIDs() []string {
	return s.settings.Keys()
}

func (s *SectionManifest) Len() int {
	return len(s.settings.Keys())
}

func (s *SectionManifest) AddSetting(setting SettingManifest) error {
	if _, exists := s.settings.Get(setting.ID()); exists {
		return lserr.AlreadyExists("setting '%s' already exists in section '%s'", setting.ID(), s.sectionID)
	}
	s.settings.Set(setting.ID(), &setting)
	return nil
}

func (s *SectionManifest) SetSetting(setting SettingManifest) error {
	if _, exists := s.settings.Get(setting.ID()); !exists {
		return lserr.NotFound("setting '%s' does not exist in section '%s'", setting.ID(), s.sectionID)
	}
	s.settings.Set(setting.ID(), &setting)
	return nil
}

// InsertSetting inserts or replaces without the existence guards. Used when a
// section is kept in sync with an external file whose keys come and go.
func (s *SectionManifest) InsertSetting(setting SettingManifest) {
	s.settings.Set(setting.ID(), &setting)
}

/**
 * UpdateSetting 更新已有配置项的值
 * @returns {error} NotFound when the id is unknown, BadRequest on mutability
 * or type check failure
 */
func (s *SectionManifest) UpdateSetting(settingID string, value ConfigurableValue) error {
	v, ok := s.settings.Get(settingID)
	if !ok {
		return lserr.NotFound("setting '%s' does not exist in section '%s'", settingID, s.sectionID)
	}
	return v.(*SettingManifest).SetValue(value)
}

/**
 * ValidateSection 对一批候选值做只读校验
 * @description
 * - Every referenced setting must exist, be mutable and pass ValidateSetting
 * - Side effect free so the caller can keep bulk updates all-or-nothing
 */
func (s *SectionManifest) ValidateSection(candidate SectionValue) error {
	for settingID, settingValue := range candidate.Settings {
		v, ok := s.settings.Get(settingID)
		if !ok {
			return lserr.NotFound("setting '%s' does not exist in section '%s'", settingID, s.sectionID)
		}
		setting := v.(*SettingManifest)
		// 提交阶段的SetOptionalValue同样会拒写不可变项，这里提前挡下，
		// 避免批量更新校验通过后又半途而废
		if !setting.isMutable {
			return lserr.BadRequest("setting '%s' is not mutable", settingID)
		}
		if err := setting.ValidateSetting(settingValue.Value); err != nil {
			return err
		}
	}
	return nil
}

type sectionWire struct {
	SectionID   string                 `json:"section_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Settings    *orderedmap.OrderedMap `json:"settings"`
}

func (s *SectionManifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(sectionWire{
		SectionID:   s.sectionID,
		Name:        s.name,
		Description: s.description,
		Settings:    s.settings,
	})
}

func (s *SectionManifest) UnmarshalJSON(data []byte) error {
	var wire struct {
		SectionID   string                     `json:"section_id"`
		Name        string                     `json:"name"`
		Description string                     `json:"description"`
		Settings    map[string]json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	// 借助orderedmap恢复settings的插入顺序
	keyOrder := orderedmap.New()
	if err := json.Unmarshal(data, keyOrder); err != nil {
		return err
	}
	section := NewSection(wire.SectionID, wire.Name, wire.Description)
	if rawSettings, ok := keyOrder.Get("settings"); ok {
		if om, ok := rawSettings.(orderedmap.OrderedMap); ok {
			for _, id := range om.Keys() {
				var setting SettingManifest
				if err := json.Unmarshal(wire.Settings[id], &setting); err != nil {
					return err
				}
				section.settings.Set(id, &setting)
			}
		}
	}
	*s = *section
	return nil
}

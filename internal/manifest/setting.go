package manifest

import (
	"encoding/json"

	"github.com/LodestoneMC-org/backend/internal/lserr"
)

/**
 * SettingManifest 一个具名、带类型的配置项
 * @property {string} settingID - Identity, immutable once created
 * @property {ConfigurableValue} value - Current value, may be absent
 * @property {ConfigurableValueType} valueType - Declared type and constraints
 * @property {ConfigurableValue} defaultValue - Immutable default, may be absent
 * @property {bool} isSecret - Whether UIs should mask the value
 * @property {bool} isRequired - A persisted setting must always carry a value
 * @property {bool} isMutable - Whether the value may change after construction
 */
type SettingManifest struct {
	settingID    string
	name         string
	description  string
	value        *ConfigurableValue
	valueType    ConfigurableValueType
	defaultValue *ConfigurableValue
	isSecret     bool
	isRequired   bool
	isMutable    bool
}

/**
 * NewRequiredSetting 以值本身推导类型创建必填配置项
 * @description
 * - WARNING: the type is inferred from the value, so a number is unbounded,
 *   a string has no regex and an enum has no options
 */
func NewRequiredSetting(settingID, name, description string, value ConfigurableValue, defaultValue *ConfigurableValue, isSecret, isMutable bool) SettingManifest {
	v := value
	return SettingManifest{
		settingID:    settingID,
		name:         name,
		description:  description,
		value:        &v,
		valueType:    value.InferType(),
		defaultValue: defaultValue,
		isSecret:     isSecret,
		isRequired:   true,
		isMutable:    isMutable,
	}
}

func NewOptionalSetting(settingID, name, description string, value *ConfigurableValue, valueType ConfigurableValueType, defaultValue *ConfigurableValue, isSecret, isMutable bool) SettingManifest {
	return SettingManifest{
		settingID:    settingID,
		name:         name,
		description:  description,
		value:        value,
		valueType:    valueType,
		defaultValue: defaultValue,
		isSecret:     isSecret,
		isRequired:   false,
		isMutable:    isMutable,
	}
}

/**
 * NewSettingWithType 用显式类型创建配置项，初始值先过类型检查
 * @returns {error} BadRequest when the initial value fails the type check
 * @description
 * - A present initial value makes the setting required, an absent one optional
 */
func NewSettingWithType(settingID, name, description string, value *ConfigurableValue, valueType ConfigurableValueType, defaultValue *ConfigurableValue, isSecret, isMutable bool) (SettingManifest, error) {
	required := false
	if value != nil {
		if err := valueType.TypeCheck(*value); err != nil {
			return SettingManifest{}, err
		}
		required = true
	}
	return SettingManifest{
		settingID:    settingID,
		name:         name,
		description:  description,
		value:        value,
		valueType:    valueType,
		defaultValue: defaultValue,
		isSecret:     isSecret,
		isRequired:   required,
		isMutable:    isMutable,
	}, nil
}

func (s *SettingManifest) ID() string                       { return s.settingID }
func (s *SettingManifest) Name() string                     { return s.name }
func (s *SettingManifest) Description() string              { return s.description }
func (s *SettingManifest) Value() *ConfigurableValue        { return s.value }
func (s *SettingManifest) ValueType() ConfigurableValueType { return s.valueType }
func (s *SettingManifest) DefaultValue() *ConfigurableValue { return s.defaultValue }
func (s *SettingManifest) IsSecret() bool                   { return s.isSecret }
func (s *SettingManifest) IsRequired() bool                 { return s.isRequired }
func (s *SettingManifest) IsMutable() bool                  { return s.isMutable }

/**
 * SetValue 提交一个新值
 * @returns {error} BadRequest when the setting is not mutable or the value
 * fails the declared type check; the stored value is left unchanged on failure
 */
func (s *SettingManifest) SetValue(value ConfigurableValue) error {
	if !s.isMutable {
		return lserr.BadRequest("setting '%s' is not mutable", s.settingID)
	}
	if err := s.valueType.TypeCheck(value); err != nil {
		return err
	}
	v := value
	s.value = &v
	return nil
}

/**
 * SetOptionalValue 提交或清空值
 * @description
 * - Same mutability gate as SetValue
 * - Clearing (nil) is rejected with BadRequest when the setting is required
 * - A present value is type checked before being committed
 */
func (s *SettingManifest) SetOptionalValue(value *ConfigurableValue) error {
	if !s.isMutable {
		return lserr.BadRequest("setting '%s' is not mutable", s.settingID)
	}
	if value == nil {
		if s.isRequired {
			return lserr.BadRequest("setting '%s' is required", s.settingID)
		}
		s.value = nil
		return nil
	}
	if err := s.valueType.TypeCheck(*value); err != nil {
		return err
	}
	v := *value
	s.value = &v
	return nil
}

/**
 * ValidateSetting 只读校验，供批量更新前的预检使用
 * @description
 * - Same rules as SetOptionalValue but side effect free, so an entire incoming
 *   manifest value can be validated before any of it is applied
 */
func (s *SettingManifest) ValidateSetting(value *ConfigurableValue) error {
	if value == nil {
		if s.isRequired {
			return lserr.BadRequest("setting '%s' is required", s.settingID)
		}
		return nil
	}
	return s.valueType.TypeCheck(*value)
}

type settingWire struct {
	SettingID    string                `json:"setting_id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Value        *ConfigurableValue    `json:"value"`
	ValueType    ConfigurableValueType `json:"value_type"`
	DefaultValue *ConfigurableValue    `json:"default_value"`
	IsSecret     bool                  `json:"is_secret"`
	IsRequired   bool                  `json:"is_required"`
	IsMutable    bool                  `json:"is_mutable"`
}

func (s SettingManifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingWire{
		SettingID:    s.settingID,
		Name:         s.name,
		Description:  s.description,
		Value:        s.value,
		ValueType:    s.valueType,
		DefaultValue: s.defaultValue,
		IsSecret:     s.isSecret,
		IsRequired:   s.isRequired,
		IsMutable:    s.isMutable,
	})
}

func (s *SettingManifest) UnmarshalJSON(data []byte) error {
	var wire settingWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = SettingManifest{
		settingID:    wire.SettingID,
		name:         wire.Name,
		description:  wire.Description,
		value:        wire.Value,
		valueType:    wire.ValueType,
		defaultValue: wire.DefaultValue,
		isSecret:     wire.IsSecret,
		isRequired:   wire.IsRequired,
		isMutable:    wire.IsMutable,
	}
	return nil
}

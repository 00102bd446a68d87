package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// AccessKind определяет режим политики доступа к викторине
type AccessKind string

const (
	// AccessAnonymous - доступ открыт всем, включая неавторизованных
	AccessAnonymous AccessKind = "anonymous"
	// AccessWhitelist - доступ только перечисленным пользователям
	AccessWhitelist AccessKind = "whitelist"
	// AccessBlacklist - доступ всем авторизованным, кроме перечисленных
	AccessBlacklist AccessKind = "blacklist"
)

// Причины решения по доступу. Строки стабильны и уходят клиенту как есть,
// формат сохранен из исходных документов.
const (
	ReasonGranted        = "Access granted"
	ReasonAuthRequired   = "This content is only for authorized users"
	ReasonNotInWhitelist = "You must be in whitelist for this content"
	ReasonInBlacklist    = "You are in blacklist for this content"
)

// AccessPolicy - размеченное объединение {anonymous | whitelist | blacklist}.
// Нулевое значение (Kind == "") означает "политика не настроена": доступ открыт.
// В хранимом документе политика выглядит как {"<kind>": [id, ...]}.
type AccessPolicy struct {
	Kind AccessKind
	IDs  []string
}

// ResolveAccessPolicy строит политику из хранимой формы документа.
// Правила разрешения конфликтов: ключ anonymous главнее всего; при
// одновременном наличии whitelist и blacklist побеждает whitelist,
// blacklist отбрасывается.
func ResolveAccessPolicy(doc map[string][]string) AccessPolicy {
	if doc == nil {
		return AccessPolicy{}
	}
	if _, ok := doc[string(AccessAnonymous)]; ok {
		return AccessPolicy{Kind: AccessAnonymous}
	}
	if ids, ok := doc[string(AccessWhitelist)]; ok {
		return AccessPolicy{Kind: AccessWhitelist, IDs: ids}
	}
	if ids, ok := doc[string(AccessBlacklist)]; ok {
		return AccessPolicy{Kind: AccessBlacklist, IDs: ids}
	}
	return AccessPolicy{}
}

// Configured возвращает true, если политика задана явно
func (p AccessPolicy) Configured() bool {
	return p.Kind != ""
}

// Evaluate - чистая функция решения по доступу: (политика, идентичность) → (granted, reason).
// Отказ — не ошибка, а возвращаемое значение; reason пригоден как сообщение клиенту.
func (p AccessPolicy) Evaluate(viewer *User) (bool, string) {
	// Ненастроенная политика означает отсутствие ограничений
	if !p.Configured() || p.Kind == AccessAnonymous {
		return true, ReasonGranted
	}

	if viewer.IsAnonymous() {
		return false, ReasonAuthRequired
	}

	switch p.Kind {
	case AccessWhitelist:
		if p.contains(viewer.ID) {
			return true, ReasonGranted
		}
		return false, ReasonNotInWhitelist
	case AccessBlacklist:
		if p.contains(viewer.ID) {
			return false, ReasonInBlacklist
		}
		return true, ReasonGranted
	}

	// Неизвестный режим не может возникнуть через ResolveAccessPolicy
	return true, ReasonGranted
}

func (p AccessPolicy) contains(id string) bool {
	for _, v := range p.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Doc возвращает политику в хранимой форме {"<kind>": [id, ...]}
func (p AccessPolicy) Doc() JSONMap {
	if !p.Configured() {
		return JSONMap{}
	}
	ids := p.IDs
	if ids == nil {
		ids = []string{}
	}
	return JSONMap{string(p.Kind): ids}
}

// MarshalJSON сериализует политику в хранимую форму
func (p AccessPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Doc())
}

// UnmarshalJSON читает хранимую форму, применяя правило "whitelist побеждает"
func (p *AccessPolicy) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*p = AccessPolicy{}
		return nil
	}
	var doc map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = ResolveAccessPolicy(doc)
	return nil
}

// Scan реализует sql.Scanner (JSONB → AccessPolicy)
func (p *AccessPolicy) Scan(value interface{}) error {
	if value == nil {
		*p = AccessPolicy{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*p = AccessPolicy{}
		return nil
	}
	return p.UnmarshalJSON(bytes)
}

// Value реализует driver.Valuer (AccessPolicy → JSONB)
func (p AccessPolicy) Value() (driver.Value, error) {
	return json.Marshal(p.Doc())
}

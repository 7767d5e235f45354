// Пакет translate — двусторонний маппинг ключей настроек между двумя
// соглашениями об именовании: Android-клиент использует полные имена
// (minigame1_enabled, minigame1_speed_normal), backend и админ-панель —
// сокращённые (mg1_enabled, mg1_speed_normal).
//
// Перевод — чистая функция над статической таблицей маппинга.
// Неизвестные ключи копируются без изменений (shallow copy), поэтому
// результат содержит и исходное, и переведённое написание — отсечение
// лишних ключей выполняет вызывающая сторона. Это сознательный
// compatibility shim, а не строгий изоморфизм: round-trip не идемпотентен,
// но стабилизируется после первого прохода.
package translate

import "fmt"

// androidToBackend — статическая таблица Android → backend.
// Заполняется в init: семейство minigame{i}_enabled для i=1..5 плюс
// фиксированные ключи скоростей/таймингов/раундов.
var androidToBackend = map[string]string{
	"minigame1_speed_normal": "mg1_speed_normal",
	"minigame1_speed_hard":   "mg1_speed_hard",
	"minigame2_speed_normal": "mg2_speed_normal",
	"minigame2_speed_hard":   "mg2_speed_hard",
	"minigame3_rounds":       "mg3_rounds",
	"minigame3_time_normal":  "mg3_time_normal",
	"minigame3_time_hard":    "mg3_time_hard",
	"minigame4_time_normal":  "mg4_time_normal",
	"minigame4_time_hard":    "mg4_time_hard",
	"minigame5_time_normal":  "mg5_time_normal",
	"minigame5_time_hard":    "mg5_time_hard",
}

// backendToAndroid — обратная таблица, строится из androidToBackend.
var backendToAndroid = map[string]string{}

func init() {
	for i := 1; i <= 5; i++ {
		androidToBackend[fmt.Sprintf("minigame%d_enabled", i)] = fmt.Sprintf("mg%d_enabled", i)
	}
	for android, backend := range androidToBackend {
		backendToAndroid[backend] = android
	}
}

// ToInternal переводит объект настроек из Android-именования в backend-именование.
// Ключи из таблицы маппинга дублируются под внутренним именем, все остальные
// (включая исходные Android-написания) копируются как есть.
func ToInternal(settings map[string]any) map[string]any {
	return apply(settings, androidToBackend)
}

// ToExternal переводит объект настроек из backend-именования в Android-именование.
// Правило pass-through то же, что и у ToInternal.
func ToExternal(settings map[string]any) map[string]any {
	return apply(settings, backendToAndroid)
}

// IsExternalKey сообщает, является ли ключ Android-написанием
// известной настройки.
func IsExternalKey(key string) bool {
	_, ok := androidToBackend[key]
	return ok
}

// apply копирует settings и добавляет переведённые ключи по таблице table.
func apply(settings map[string]any, table map[string]string) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	for k, v := range settings {
		if mapped, ok := table[k]; ok {
			out[mapped] = v
		}
	}
	return out
}

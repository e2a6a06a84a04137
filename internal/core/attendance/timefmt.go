package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeTime は H:M[:S] 形式の時刻を HH:MM:SS に整形します。空文字は nil を返します。
func NormalizeTime(raw string) (*string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, ErrInvalidTime
	}
	if len(parts) == 2 {
		parts = append(parts, "00")
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" || n < 0 || n > limits[i] {
			return nil, ErrInvalidTime
		}
		values[i] = n
	}

	out := fmt.Sprintf("%02d:%02d:%02d", values[0], values[1], values[2])
	return &out, nil
}

// FormatAMLabel は保存された時刻を 12 時間表記にし、常に AM を付けて返します。
// 午後の時刻も AM と表示されます。未記録の場合は "—" です。
func FormatAMLabel(stored *string) string {
	if stored == nil || *stored == "" {
		return "—"
	}
	h, m, ok := splitClock(*stored)
	if !ok {
		return *stored
	}
	return fmt.Sprintf("%d:%s AM", h, m)
}

// ToAMInput は保存された時刻を時刻入力欄向けの HH:MM に変換します。
// 未記録の場合は now を同じ規則で変換します。
func ToAMInput(stored *string, now time.Time) string {
	if stored == nil || *stored == "" {
		return formatAMOnly(now)
	}
	h, m, ok := splitClock(*stored)
	if !ok {
		return *stored
	}
	return fmt.Sprintf("%02d:%s", h, m)
}

// RoundedStartTime は now を 5 分単位に丸めた既定の開始時刻を返します。
func RoundedStartTime(now time.Time) string {
	return formatAMOnly(now.Round(5 * time.Minute))
}

func formatAMOnly(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", twelveHour(t.Hour()), t.Minute())
}

func splitClock(v string) (int, string, bool) {
	parts := strings.Split(v, ":")
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	m := "00"
	if len(parts) > 1 {
		m = parts[1]
		if len(m) < 2 {
			m = strings.Repeat("0", 2-len(m)) + m
		}
	}
	return twelveHour(h), m, true
}

func twelveHour(h int) int {
	if h >= 12 {
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	return h
}

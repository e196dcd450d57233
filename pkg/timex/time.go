// Package timex provides a time.Time alias with database and JSON formatting
// Package timex 提供带数据库与 JSON 格式化的 time.Time 别名
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const timeFormat = "2006-01-02 15:04:05"

// Time 数据库与 JSON 友好的时间类型
type Time time.Time

// Now 返回当前时间
func Now() Time {
	return Time(time.Now())
}

// Time 转换为标准 time.Time
func (t Time) Time() time.Time {
	return time.Time(t)
}

// Unix 返回秒级时间戳
func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

// UnixMilli 返回毫秒级时间戳
func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

// UnixMicro 返回微秒级时间戳
func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

// UnixNano 返回纳秒级时间戳
func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

// IsZero 判断是否为零值
func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

// String 实现 fmt.Stringer
func (t Time) String() string {
	return time.Time(t).Format(timeFormat)
}

// MarshalJSON 实现 json.Marshaler
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, time.Time(t).Format(timeFormat))), nil
}

// UnmarshalJSON 实现 json.Unmarshaler
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	parsed, err := time.ParseInLocation(`"`+timeFormat+`"`, s, time.Local)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value 实现 driver.Valuer
func (t Time) Value() (driver.Value, error) {
	if time.Time(t).IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan 实现 sql.Scanner
func (t *Time) Scan(v any) error {
	switch value := v.(type) {
	case time.Time:
		*t = Time(value)
		return nil
	case string:
		parsed, err := time.ParseInLocation(timeFormat, value, time.Local)
		if err != nil {
			return err
		}
		*t = Time(parsed)
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("can not convert %v to timex.Time", v)
	}
}

package util

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// EncodeMD5 对字符串进行MD5编码
// 返回值: MD5编码后的32位十六进制字符串
func EncodeMD5(str string) string {
	h := md5.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}

// GravatarHash computes the gravatar hash of an email address
// GravatarHash 计算邮箱地址的 gravatar 哈希
func GravatarHash(email string) string {
	return EncodeMD5(strings.ToLower(strings.TrimSpace(email)))
}

// NormalizeEmail 规范化邮箱地址，用于协作者匹配
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

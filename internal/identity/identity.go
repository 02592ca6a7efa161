// Package identity derives the content-addressed identifiers used by the
// review store. Every function here is pure and its output is a persisted
// compatibility contract: changing a derivation invalidates existing ids.
package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// signSalt 作者签名中 OTP 的固定盐
const signSalt = "SAFC_salt"

// IDLen 对象 id 与评价 id 的十六进制长度
const IDLen = 16

// ObjectID 由 学校+学院+导师 计算对象 id。
// 只能在新建对象时计算，之后描述字段即使变化 id 也不变。
// 字段之间没有分隔符，与历史数据保持一致。
func ObjectID(university, department, supervisor string) string {
	return short(university + department + supervisor)
}

// CommentID 评价 id = sha256(target | 评价 | 日期)[:8]，同时提供去重
func CommentID(targetID, content, date string) string {
	return short(targetID + content + date)
}

// AuthorSign 计算作者承诺：sha256(commentID | hex(sha256(salt | otp)))
func AuthorSign(commentID, otp string) string {
	inner := sha256.Sum256([]byte(signSalt + otp))
	outer := sha256.Sum256([]byte(commentID + hex.EncodeToString(inner[:])))
	return hex.EncodeToString(outer[:])
}

// VerifyAuthor reports whether otp reproduces the stored sign.
func VerifyAuthor(commentID, otp, sign string) bool {
	if sign == "" {
		return false
	}
	want := AuthorSign(commentID, otp)
	return subtle.ConstantTimeCompare([]byte(want), []byte(sign)) == 1
}

// IsID reports whether s has the shape of an object or comment id.
func IsID(s string) bool {
	if len(s) != IDLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func short(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:IDLen/2])
}

// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は投稿本文からHTMLマークアップを除去し、
// フィードに表示するプレーンテキストに正規化する。
// bluemondayのStrictPolicyを使用し、すべてのタグを取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は投稿本文のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はHTMLタグを取り除いたプレーンテキストを返す。
	// script, style要素は内容ごと除去される。
	// 前後の空白は取り除く。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので、リクエスト間で共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はHTMLタグを取り除いたプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicyはエスケープ済みテキストを返すため、表示用にアンエスケープする。
	// レスポンスはJSONで返し、HTMLとしては埋め込まない。
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)

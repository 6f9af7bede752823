package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"空文字列", "", ""},
		{"プレーンテキストはそのまま", "今日の朝食はオートミール", "今日の朝食はオートミール"},
		{"タグを除去", "<p>サラダ <strong>200kcal</strong></p>", "サラダ 200kcal"},
		{"scriptは内容ごと除去", "ok<script>alert(1)</script>", "ok"},
		{"イベント属性付きタグを除去", `<img src="x" onerror="alert(1)">昼食`, "昼食"},
		{"エンティティはアンエスケープ", "Tom &amp; Jerry", "Tom & Jerry"},
		{"前後の空白を除去", "  <b>夕食</b>  ", "夕食"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()
	in := "<div>ランニング <em>5km</em></div>"

	first := s.Sanitize(in)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("Sanitize is not idempotent: %q -> %q", first, second)
	}
}

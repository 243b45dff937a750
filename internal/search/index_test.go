package search

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Lừa Đảo":      "lua dao",
		"BẮT NẠT":      "bat nat",
		"người lạ xấu": "nguoi la xau",
		"Straße":       "strasse",
		"":             "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestContainsFolded(t *testing.T) {
	if !ContainsFolded("Có dấu hiệu LỪA ĐẢO qua tin nhắn", "lua dao") {
		t.Fatalf("expected folded match")
	}
	if !ContainsFolded("anything", "   ") {
		t.Fatalf("blank needle should match")
	}
	if ContainsFolded("an toàn", "bắt nạt") {
		t.Fatalf("unexpected match")
	}
}

func TestDefaultIndex_TopK_MatchesWithoutDiacritics(t *testing.T) {
	idx := NewDefaultIndex()
	if idx.Len() != len(DefaultTips()) {
		t.Fatalf("expected all default tips indexed, got %d", idx.Len())
	}

	res := idx.TopK("nguoi la doi gui ma OTP chuyen tien", 3)
	if len(res) == 0 || len(res) > 3 {
		t.Fatalf("expected 1..3 results, got %d", len(res))
	}
	if res[0].Topic != "Lừa đảo" {
		t.Fatalf("expected scam tip first, got %+v", res[0])
	}
	for i := 1; i < len(res); i++ {
		if res[i].Score > res[i-1].Score {
			t.Fatalf("results not sorted by score: %+v", res)
		}
	}
}

func TestTopK_EmptyInputs(t *testing.T) {
	idx := NewDefaultIndex()
	if idx.TopK("   ", 3) != nil {
		t.Fatalf("blank query should return nil")
	}
	if idx.TopK("và là của", 3) != nil {
		t.Fatalf("stop-word-only query should return nil")
	}
	if NewIndex(nil).TopK("lừa đảo", 3) != nil {
		t.Fatalf("empty index should return nil")
	}
	if got := idx.TopK("bắt nạt", 0); len(got) == 0 || len(got) > 3 {
		t.Fatalf("k<=0 should default to 3, got %d", len(got))
	}
}

func TestTopK_DeterministicTieBreak(t *testing.T) {
	idx := NewIndex([]Tip{
		{Text: "chặn tài khoản lạ ngay lập tức nhé"},
		{Text: "chặn tài khoản lạ ngay"},
	}, WithMinParagraphRunes(0), WithStopwords(nil))
	a := idx.TopK("chặn", 2)
	b := idx.TopK("chặn", 2)
	if len(a) != 2 || a[0].Snippet != b[0].Snippet || a[1].Snippet != b[1].Snippet {
		t.Fatalf("expected deterministic order, got %+v vs %+v", a, b)
	}
}

func TestOptions_MinRunesAndMaxDocs(t *testing.T) {
	tips := []Tip{{Text: "ngắn"}, {Text: "một lời khuyên đủ dài về an toàn mạng"}, {Text: "một lời khuyên khác về mật khẩu mạnh"}}
	if n := NewIndex(tips).Len(); n != 2 {
		t.Fatalf("expected short tip dropped, got %d", n)
	}
	if n := NewIndex(tips, WithMinParagraphRunes(0), WithMaxDocs(1)).Len(); n != 1 {
		t.Fatalf("expected max docs cap, got %d", n)
	}
}

func TestNewIndexFromReader_HeadingsBecomeTopics(t *testing.T) {
	md := "# Bắt nạt\n\nĐừng trả lời kẻ bắt nạt, hãy chụp màn hình làm bằng chứng.\n\n## Mật khẩu\nKhông cho bạn bè mượn mật khẩu tài khoản của mình.\n"
	idx, err := NewIndexFromReader(strings.NewReader(md))
	if err != nil {
		t.Fatalf("NewIndexFromReader: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 tips, got %d", idx.Len())
	}
	res := idx.TopK("mat khau", 1)
	if len(res) != 1 || res[0].Topic != "Mật khẩu" {
		t.Fatalf("unexpected result: %+v", res)
	}
	// Topic words are searchable too.
	res = idx.TopK("bat nat", 1)
	if len(res) != 1 || res[0].Topic != "Bắt nạt" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := NewIndexFromReader(errReader{}); err == nil {
		t.Fatalf("expected reader error")
	}
}

func TestNewIndexFromMarkdown(t *testing.T) {
	p := writePreprocessTemp(t, t.TempDir(), "kb.md", "## Lừa đảo\n- Không bao giờ gửi mã OTP cho bất kỳ ai\n- Đừng bấm vào đường link nhận quà miễn phí\n")
	idx, err := NewIndexFromMarkdown(p)
	if err != nil {
		t.Fatalf("NewIndexFromMarkdown: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 tips, got %d", idx.Len())
	}
	res := idx.TopK("ma otp", 1)
	if len(res) != 1 || res[0].Topic != "Lừa đảo" || !strings.Contains(res[0].Snippet, "OTP") {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := NewIndexFromMarkdown(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTopK_ScoresAreJaccard(t *testing.T) {
	idx := NewIndex([]Tip{
		{Text: "otp ngân hàng"},
		{Text: "mật khẩu mạnh"},
	}, WithMinParagraphRunes(0), WithStopwords(nil))

	res := idx.TopK("otp", 5)
	if len(res) != 1 {
		t.Fatalf("tips without shared tokens must not be returned: %+v", res)
	}
	// {otp} vs {otp, ngan, hang}
	if want := 1.0 / 3.0; res[0].Score != want {
		t.Fatalf("score = %v, want %v", res[0].Score, want)
	}
}

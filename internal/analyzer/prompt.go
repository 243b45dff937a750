package analyzer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt is the instruction pair sent with every screenshot.
type Prompt struct {
	System      string `yaml:"system"`
	Instruction string `yaml:"instruction"`
}

// Risk types the prompt asks the model to choose from.
var RiskTypes = []string{"lừa đảo", "bắt nạt", "người lạ xấu", "không phù hợp", "an toàn"}

const defaultSystemPrompt = `Bạn là chuyên gia an toàn trực tuyến cho học sinh Việt Nam.
Nhiệm vụ: đọc ảnh chụp màn hình một cuộc trò chuyện và đánh giá mức độ rủi ro cho học sinh.
Chỉ trả lời bằng MỘT đối tượng JSON hợp lệ, không thêm giải thích hay markdown.`

var defaultInstruction = fmt.Sprintf(`Hãy trích xuất toàn bộ nội dung tin nhắn trong ảnh, sau đó phân loại rủi ro.

Loại rủi ro (riskType) chỉ được chọn một trong: %s.
Mức độ (riskLevel): "high" nếu nguy hiểm rõ ràng, "medium" nếu cần người lớn chú ý, "low" nếu an toàn.

Trả về đúng định dạng:
{
  "extractedText": "<toàn bộ văn bản đọc được>",
  "riskLevel": "high" | "medium" | "low",
  "riskType": "<một loại ở trên>",
  "confidenceScore": <số từ 0 đến 100>,
  "summary": "<tóm tắt ngắn gọn và lời khuyên cho học sinh>"
}`, strings.Join(RiskTypes, " | "))

// DefaultPrompt returns the built-in Vietnamese safety prompt.
func DefaultPrompt() Prompt {
	return Prompt{System: defaultSystemPrompt, Instruction: defaultInstruction}
}

// LoadPrompt reads a YAML prompt file. Missing keys keep their defaults.
// An empty path returns DefaultPrompt.
func LoadPrompt(path string) (Prompt, error) {
	p := DefaultPrompt()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read prompt file: %w", err)
	}
	var fromFile Prompt
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return p, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	if s := strings.TrimSpace(fromFile.System); s != "" {
		p.System = s
	}
	if s := strings.TrimSpace(fromFile.Instruction); s != "" {
		p.Instruction = s
	}
	return p, nil
}

func (p Prompt) orDefault() Prompt {
	d := DefaultPrompt()
	if strings.TrimSpace(p.System) == "" {
		p.System = d.System
	}
	if strings.TrimSpace(p.Instruction) == "" {
		p.Instruction = d.Instruction
	}
	return p
}

package search

// VietnameseStopwords are function words ignored when matching tips.
var VietnameseStopwords = []string{
	"và", "là", "của", "có", "cho", "với", "các", "những", "một", "này", "thì",
	"mà", "được", "bị", "để", "khi", "nếu", "em", "bạn", "mình", "tôi", "ở",
	"không", "gì", "sao", "nào", "như", "thế", "rồi", "cũng", "đã", "sẽ", "đang",
	"the", "a", "an", "and", "or", "to", "of", "is", "i", "my", "me",
}

// DefaultTips returns the built-in safety knowledge base.
func DefaultTips() []Tip {
	return []Tip{
		{Topic: "Lừa đảo", Text: "Không bao giờ chuyển tiền, nạp thẻ hay gửi mã OTP cho người lạ, kể cả khi họ nói là trúng thưởng, người quen nhờ vả hay nhân viên ngân hàng."},
		{Topic: "Lừa đảo", Text: "Tin nhắn hứa tặng quà, kim cương, skin game miễn phí và yêu cầu đăng nhập qua đường link lạ thường là lừa đảo chiếm tài khoản. Đừng bấm vào link."},
		{Topic: "Lừa đảo", Text: "Nếu ai đó giục em làm ngay, dọa khóa tài khoản hoặc bảo giữ bí mật với bố mẹ, hãy dừng lại và hỏi người lớn trước khi làm gì."},
		{Topic: "Bắt nạt", Text: "Khi bị bắt nạt trên mạng, đừng trả lời hay chửi lại. Hãy chụp màn hình làm bằng chứng, chặn tài khoản và báo cho bố mẹ hoặc thầy cô."},
		{Topic: "Bắt nạt", Text: "Bị chế ảnh, bị nói xấu trong nhóm chat hay bị đe dọa không phải lỗi của em. Em có quyền rời nhóm và nhờ người lớn giúp đỡ."},
		{Topic: "Người lạ xấu", Text: "Không gửi ảnh riêng tư, địa chỉ nhà, tên trường hay lịch đi học cho người chỉ quen qua mạng, dù họ tỏ ra thân thiện."},
		{Topic: "Người lạ xấu", Text: "Người lạ rủ gặp mặt ngoài đời, tặng quà hoặc đề nghị giữ bí mật là dấu hiệu nguy hiểm. Hãy kể ngay cho bố mẹ hoặc thầy cô."},
		{Topic: "Không phù hợp", Text: "Nếu nhận được hình ảnh hoặc tin nhắn nhạy cảm khiến em khó chịu, đừng chia sẻ tiếp. Hãy xóa, chặn người gửi và báo cho người lớn tin cậy."},
		{Topic: "Tài khoản", Text: "Đặt mật khẩu mạnh, không dùng chung mật khẩu, bật xác thực hai lớp và không cho bạn bè mượn tài khoản mạng xã hội."},
		{Topic: "Trợ giúp", Text: "Khi cần hỗ trợ khẩn cấp, em có thể gọi Tổng đài quốc gia bảo vệ trẻ em 111 (miễn phí, 24/7) hoặc báo ngay cho bố mẹ, thầy cô."},
	}
}

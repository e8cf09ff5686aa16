package imagebot

// User-facing texts (zh-TW). They are produced only when a reply is
// composed; no code branches on their content.
const (
	MsgNoResults     = "找不到相關圖片"
	MsgNoValidSource = "找不到來源有效安全或可訪問的圖片"
	MsgSearchFailed  = "圖片搜尋失敗，請稍後再試"
	MsgTimeout       = "請求超時，請稍後再試"
	MsgConnection    = "網路連線失敗，請檢查您的網路連線"
	MsgRequestError  = "請求錯誤，請稍候再試"
	MsgMalformed     = "圖片解析失敗"

	MsgApology  = "對不起，我找不到符合的圖片，請稍後再試，或更換搜尋關鍵字"
	MsgLinkOnly = "搜尋到相關圖片但無法上傳，僅提供連結查看圖片："

	MsgDescribeTimeout  = "請求超時，請稍候再試"
	MsgDescribeAPIError = "API 服務出現錯誤，請稍候再試"
	MsgDescribeRequest  = "請求錯誤，請稍候再試"
	MsgDescribeEmpty    = "無法生成描述"
)

// Message returns the localized text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonNoResults:
		return MsgNoResults
	case ReasonNoValidSource:
		return MsgNoValidSource
	case ReasonTimeout:
		return MsgTimeout
	case ReasonConnection:
		return MsgConnection
	case ReasonHTTP:
		return MsgSearchFailed
	case ReasonMalformed:
		return MsgMalformed
	default:
		return MsgRequestError
	}
}

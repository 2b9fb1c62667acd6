// Package i18n renders user-facing messages for service error codes in English and Vietnamese.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Keys that are not service error codes.
const (
	KeyInternalError  = "InternalError"
	KeyInvalidRequest = "InvalidRequest"
	KeyUnauthorized   = "Unauthorized"
	KeyForbidden      = "Forbidden"
	KeyRateLimited    = "RateLimited"
)

type entry struct {
	en string
	vi string
}

// messages with a %s verb take the error detail as their single argument.
var messages = map[string]entry{
	"NoCostPriceAvailable":          {"No active cost price list is available", "Chưa có bảng giá vốn đang áp dụng"},
	"SalePriceListInvalid":          {"The selected sale price list is not valid", "Bảng giá bán đã chọn không hợp lệ"},
	"MissingPriceForProduct":        {"Product %s has no price in the selected price lists", "Sản phẩm %s chưa có giá trong bảng giá đã chọn"},
	"EmptyCart":                     {"The order has no product with a positive weight", "Đơn hàng chưa có sản phẩm nào với khối lượng hợp lệ"},
	"InvalidDiscountPercent":        {"Discount must be between 0 and 90 percent", "Chiết khấu phải nằm trong khoảng 0 đến 90%%"},
	"DiscountReasonRequired":        {"A reason is required for a discount", "Vui lòng nhập lý do chiết khấu"},
	"DiscountRequiresSystemProfile": {"Discounts can only be requested on a system price list", "Chỉ được đề xuất chiết khấu trên bảng giá hệ thống"},
	"DiscountDecisionRequired":      {"Approve or reject the pending discount first", "Vui lòng duyệt hoặc từ chối đề xuất chiết khấu trước"},
	"DiscountRequestNotFound":       {"The order has no pending discount request", "Đơn hàng không có đề xuất chiết khấu đang chờ"},
	"OrderAlreadyReviewed":          {"The order has already been reviewed", "Đơn hàng đã được duyệt trước đó"},
	"OrderPendingApprovalLocked":    {"The order is still waiting for approval", "Đơn hàng vẫn đang chờ duyệt"},
	"OrderNotFound":                 {"Order not found", "Không tìm thấy đơn hàng"},
	"CustomerNotFound":              {"Customer not found", "Không tìm thấy khách hàng"},
	"CustomerInactive":              {"Customer %s is inactive", "Khách hàng %s đã ngừng hoạt động"},
	"DeliveryDateRequired":          {"A valid delivery date (YYYY-MM-DD) is required", "Vui lòng chọn ngày giao hàng hợp lệ (YYYY-MM-DD)"},
	"InvalidReviewDecision":         {"Unknown review decision %s", "Quyết định duyệt %s không hợp lệ"},
	"InvalidStatus":                 {"Invalid status: %s", "Trạng thái không hợp lệ: %s"},
	"AdminRequired":                 {"Only administrators can do this", "Chỉ quản trị viên mới được thực hiện thao tác này"},
	"PublicLinkNotFound":            {"This order link does not exist", "Liên kết đặt hàng không tồn tại"},
	"PublicLinkInactive":            {"This order link is no longer active", "Liên kết đặt hàng đã hết hiệu lực"},
	"InvalidCredentials":            {"Invalid email or password", "Email hoặc mật khẩu không đúng"},
	KeyInternalError:                {"Something went wrong, please try again", "Đã có lỗi xảy ra, vui lòng thử lại"},
	KeyInvalidRequest:               {"Invalid request: %s", "Yêu cầu không hợp lệ: %s"},
	KeyUnauthorized:                 {"Please sign in again", "Vui lòng đăng nhập lại"},
	KeyForbidden:                    {"You do not have permission for this action", "Bạn không có quyền thực hiện thao tác này"},
	KeyRateLimited:                  {"Too many requests, please slow down", "Quá nhiều yêu cầu, vui lòng thử lại sau"},
}

var supported = []language.Tag{language.Vietnamese, language.English}

// Translator matches request languages and prints catalog messages.
type Translator struct {
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
	cat      catalog.Catalog
}

// New builds a Translator. defaultLocale is used when nothing in Accept-Language matches.
func New(defaultLocale string) *Translator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, e := range messages {
		_ = b.SetString(language.English, key, e.en)
		_ = b.SetString(language.Vietnamese, key, e.vi)
	}

	fallback := language.Vietnamese
	if tag, err := language.Parse(defaultLocale); err == nil {
		_, idx, _ := language.NewMatcher(supported).Match(tag)
		fallback = supported[idx]
	}

	// the default locale goes first so it wins when nothing matches
	tags := []language.Tag{fallback}
	for _, t := range supported {
		if t != fallback {
			tags = append(tags, t)
		}
	}
	return &Translator{tags: tags, matcher: language.NewMatcher(tags), fallback: fallback, cat: b}
}

// Match picks the best supported language for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	if strings.TrimSpace(acceptLanguage) == "" {
		return t.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.fallback
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return t.fallback
	}
	return t.tags[idx]
}

// Message renders key in lang. Unknown keys render as the internal error message.
func (t *Translator) Message(lang language.Tag, key, detail string) string {
	e, ok := messages[key]
	if !ok {
		key = KeyInternalError
		e = messages[key]
	}
	p := message.NewPrinter(lang, message.Catalog(t.cat))
	if strings.Contains(e.en, "%s") {
		return p.Sprintf(key, detail)
	}
	return p.Sprintf(key)
}

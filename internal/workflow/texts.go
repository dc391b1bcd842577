package workflow

import (
	"fmt"
	"html"
	"strings"

	"github.com/set-night/seyedbot/internal/domain"
)

// Main menu labels. Incoming text is matched against these verbatim.
const (
	LabelCaseStudies  = "Case Studies"
	LabelWebinars     = "وبینار ها"
	LabelLessons      = "دراپ لرنینگ"
	LabelConsultation = "رزرو مشاوره"
	LabelServices     = "خدمات"
	LabelBack         = "بازگشت"
	LabelAdminPanel   = "🛠️ پنل ادمین"
	LabelSendContact  = "ارسال شماره موبایل"
)

var serviceLabels = []string{
	"طراحی سایت",
	"تولید محتوا",
	"مشاوره فروش و بازاریابی",
	"کمپین فروش",
	"تیم سازی و منابع انسانی",
	"برندینگ",
}

var kindLabels = map[string]domain.ContentKind{
	LabelWebinars:    domain.KindWebinar,
	LabelLessons:     domain.KindLesson,
	LabelCaseStudies: domain.KindCaseStudy,
}

var kindNames = map[domain.ContentKind]string{
	domain.KindWebinar:   "وبینار",
	domain.KindLesson:    "دراپ لرنینگ",
	domain.KindCaseStudy: "کیس استادی",
}

func kindName(kind domain.ContentKind) string {
	if n, ok := kindNames[kind]; ok {
		return n
	}
	return string(kind)
}

const (
	txtPrivateOnly        = "این ربات فقط در چت خصوصی پاسخگو است."
	txtJoinChannel        = "برای استفاده از ربات، ابتدا باید در کانال خصوصی ما عضو شوید."
	txtJoinChannelAgain   = "به نظر می‌رسد هنوز عضو کانال نشده‌ای. لطفاً پس از عضویت روی «تایید عضویت» بزن."
	txtMembershipOK       = "عضویت شما تایید شد ✅"
	txtSendContact        = "برای استفاده از ربات، لطفاً شماره موبایل خود را از طریق دکمه زیر ارسال کنید."
	txtSendContactAfterOK = "عضویت تایید شد. لطفاً شماره موبایل خود را از طریق دکمه زیر ارسال کنید."
	txtContactPlaceholder = "لطفاً شماره موبایل خود را ارسال کنید"
	txtOwnContactOnly     = "لطفاً شماره موبایل متعلق به خودتان را ارسال کنید."
	txtInvalidPhone       = "شماره موبایل معتبر نیست. لطفاً شماره را با فرمت صحیح ارسال کنید."
	txtPhoneSaved         = "شماره موبایل شما ذخیره شد."

	txtMainMenu      = "سلام! یکی از گزینه‌های زیر را انتخاب کن:"
	txtBackToMain    = "بازگشت به منوی اصلی."
	txtComingSoon    = "این بخش به زودی در دسترس قرار می‌گیرد."
	txtServicesMenu  = "یکی از خدمات زیر را انتخاب کن:"
	txtCatalogueMenu = "یکی از موارد زیر را انتخاب کن:"
	txtCatalogueNone = "فعلاً موردی ثبت نشده است."
	txtPickFromMenu  = "لطفاً یکی از گزینه‌های فهرست را انتخاب کن."
	txtNoLongerThere = "این مورد دیگر در دسترس نیست."
	txtGenericError  = "خطایی رخ داد. لطفاً دوباره تلاش کن."

	txtNoAccess      = "شما به این بخش دسترسی ندارید."
	txtAccessRevoked = "دسترسی شما قطع شده است."
	txtInvalidOption = "گزینه نامعتبر است."
	txtCancelled     = "عملیات لغو شد."

	txtPanelWelcome   = "به پنل ادمین خوش آمدید. یکی از گزینه‌ها را انتخاب کنید:"
	txtPanelExit      = "خروج از پنل ادمین."
	txtSessionExpired = "این منو منقضی شده است. پنل را دوباره باز کنید."
	txtSettings       = "بخش تنظیمات ربات:"
	txtManageAdmins   = "بخش مدیریت ادمین‌ها:"
	txtPhoneForced    = "اجبار ارسال شماره موبایل فعال شد ✅"
	txtPhoneOptional  = "اجبار ارسال شماره موبایل غیرفعال شد ❌"
	txtAskAdminPhone  = "شماره موبایل کاربر را ارسال کنید (۱۰ رقم پایانی)."
	txtAdminBadPhone  = "شماره موبایل معتبر نیست. لطفاً دوباره شماره را وارد کنید."
	txtAdminNoUser    = "هیچ کاربری با این شماره موبایل در ربات ثبت نشده است."
	txtAlreadyAdmin   = "این کاربر هم‌اکنون ادمین است."
	txtNoRemovable    = "ادمینی برای حذف وجود ندارد."
	txtPickRemove     = "یکی از ادمین‌ها را برای حذف انتخاب کنید:"
	txtCannotRemove   = "امکان حذف این ادمین وجود ندارد."
	txtNotAdmin       = "این کاربر ادمین نیست."
	txtAdminRemoved   = "دسترسی ادمین حذف شد."
	txtGrantedNotice  = "شما ادمین شدید."
	txtRevokedNotice  = "دسترسی ادمین شما حذف شد."

	txtBroadcastPick      = "پیام را برای کدام گروه ارسال می‌کنید؟"
	txtBroadcastCancelled = "ارسال پیام همگانی لغو شد."
	txtBroadcastTextOnly  = "لطفاً یک پیام متنی ارسال کنید."

	txtConsultationPay   = "💳 پرداخت کارت به کارت"
	txtSendReceiptButton = "📤 ارسال رسید واریز"
	txtSendReceipt       = "لطفاً تصویر رسید واریز را ارسال کنید."
	txtReceiptShape      = "لطفاً رسید را به صورت عکس یا فایل ارسال کنید."
	txtReceiptReceived   = "رسید شما دریافت شد و پس از بررسی نتیجه اعلام می‌شود."
	txtApproveButton     = "✅ تایید"
	txtRejectButton      = "❌ رد"
	txtRequestApproved   = "درخواست مشاوره شما تایید شد ✅\nبه زودی با شما تماس می‌گیریم."
	txtAskRelay          = "درخواست تایید شد. پیامی که می‌خواهید برای کاربر ارسال شود را بفرستید."
	txtRelayDone         = "پیام شما برای کاربر ارسال شد."
	txtAskReason         = "دلیل رد درخواست را ارسال کنید."
	txtReasonTextOnly    = "لطفاً دلیل را به صورت متن ارسال کنید."
	txtRejectedAck       = "درخواست رد شد و دلیل برای کاربر ارسال شد."
	txtAlreadyProcessed  = "این درخواست قبلاً بررسی شده است."
	txtRequestMissing    = "این درخواست پیدا نشد."

	txtCancelButton   = "انصراف 🔙"
	txtBackButton     = "بازگشت 🔙"
	txtFinishButton   = "✅ پایان و انتشار"
	txtSkipCover      = "بدون کاور ⏭"
	txtSendTitle      = "عنوان را ارسال کنید."
	txtSendDesc       = "توضیحات را ارسال کنید."
	txtSendCover      = "تصویر کاور را ارسال کنید یا این مرحله را رد کنید."
	txtCoverPhotoOnly = "کاور باید عکس باشد. لطفاً یک عکس ارسال کنید."
	txtSendItems      = "فایل‌های محتوا را یکی یکی ارسال کنید و در پایان «پایان و انتشار» را بزنید."
	txtUnsupported    = "این نوع فایل پشتیبانی نمی‌شود. لطفاً ویدیو، صدا، فایل یا عکس ارسال کنید."
	txtEmptyText      = "متن نمی‌تواند خالی باشد. لطفاً دوباره ارسال کن."
	txtSelectFirst    = "ابتدا یک مورد را از فهرست انتخاب کن."
	txtUpdated        = "به‌روزرسانی شد ✅"
	txtDeleted        = "حذف شد ✅"
	txtSendNewFile    = "فایل جدید را ارسال کنید."
	txtSendNewItem    = "فایل محتوای جدید را ارسال کنید."
	txtNoItems        = "فایلی برای این مورد ثبت نشده است."
)

func statsText(s domain.UserStats) string {
	return strings.Join([]string{
		"آمار ربات:",
		fmt.Sprintf("- کل کاربران: %d", s.Total),
		fmt.Sprintf("- کاربران با شماره موبایل: %d", s.WithPhone),
		fmt.Sprintf("- کاربران بدون شماره موبایل: %d", s.WithoutPhone),
	}, "\n")
}

var filterLabels = map[domain.BroadcastFilter]string{
	domain.BroadcastAll:        "همه کاربران",
	domain.BroadcastWithPhone:  "کاربران دارای شماره",
	domain.BroadcastLacksPhone: "کاربران بدون شماره",
}

func broadcastAskText(f domain.BroadcastFilter) string {
	return fmt.Sprintf("متن پیام مورد نظر برای «%s» را ارسال کنید.", filterLabels[f])
}

func broadcastEmptyText(f domain.BroadcastFilter) string {
	return fmt.Sprintf("هیچ کاربری در گروه «%s» یافت نشد.", filterLabels[f])
}

func broadcastDoneText(f domain.BroadcastFilter, res domain.BroadcastResult) string {
	return strings.Join([]string{
		fmt.Sprintf("پیام برای «%s» ارسال شد.", filterLabels[f]),
		fmt.Sprintf("کل مخاطبان: %d", res.Targeted),
		fmt.Sprintf("موفق: %d", res.Sent),
		fmt.Sprintf("ناموفق: %d", res.Failed),
	}, "\n")
}

func adminAddedText(u *domain.User) string {
	name := u.FullName()
	if name == "" {
		name = "بدون نام"
	}
	return "ادمین جدید اضافه شد.\nکاربر: " + html.EscapeString(name)
}

func adminStatusNotice(granted bool, phone string) string {
	status := txtRevokedNotice
	if granted {
		status = txtGrantedNotice
	}
	if phone == "" {
		return status
	}
	return status + "\nشماره ثبت‌شده: " + phone
}

func adminListText(admins []domain.Admin) string {
	if len(admins) == 0 {
		return "ادمینی ثبت نشده است."
	}
	lines := []string{"فهرست ادمین‌ها:"}
	for i, a := range admins {
		name, username, phone := a.FullName(), "@"+a.Username, a.PhoneNumber
		if a.Bootstrap && name == "" {
			name = "ادمین موقت"
		}
		if name == "" {
			name = "بدون نام"
		}
		if a.Username == "" {
			username = "بدون نام کاربری"
		}
		if phone == "" {
			phone = "نامشخص"
		}
		lines = append(lines, fmt.Sprintf("\n%d. نام: %s\nیوزرنیم: %s\nشماره: %s\nشناسه: <code>%d</code>",
			i+1, html.EscapeString(name), html.EscapeString(username), phone, a.TelegramID))
	}
	return strings.Join(lines, "\n")
}

func contentMenuText(kind domain.ContentKind, count int) string {
	text := fmt.Sprintf("مدیریت %s:", kindName(kind))
	if count == 0 {
		text += "\n\nموردی ثبت نشده است."
	}
	return text
}

func contentDetailText(rec *domain.ContentRecord, items int, views int64) string {
	cover := "ندارد"
	if rec.CoverRef != nil {
		cover = "دارد"
	}
	return strings.Join([]string{
		fmt.Sprintf("مشخصات %s انتخاب‌شده:", kindName(rec.Kind)),
		"",
		"عنوان: <b>" + html.EscapeString(rec.Title) + "</b>",
		"توضیحات: " + html.EscapeString(rec.Description),
		"کاور: " + cover,
		fmt.Sprintf("تعداد فایل‌ها: %d", items),
		fmt.Sprintf("بازدید: %d", views),
	}, "\n")
}

func itemAddedText(order int) string {
	return fmt.Sprintf("فایل شماره %d اضافه شد. فایل بعدی را ارسال کنید یا «پایان و انتشار» را بزنید.", order+1)
}

func publishedText(kind domain.ContentKind) string {
	return fmt.Sprintf("%s جدید ثبت شد ✅", kindName(kind))
}

func draftMissingText(field domain.DraftField) string {
	switch field {
	case domain.FieldTitle:
		return "اطلاعات ناقص است: عنوان ثبت نشده. " + txtSendTitle
	case domain.FieldDescription:
		return "اطلاعات ناقص است: توضیحات ثبت نشده. " + txtSendDesc
	}
	return txtGenericError
}

func itemLabel(item domain.ContentItem) string {
	return fmt.Sprintf("#%d %s", item.Order+1, item.FileKind)
}

func paymentText(amount, currency, card string) string {
	return strings.Join([]string{
		"💳 اطلاعات پرداخت:",
		"",
		fmt.Sprintf("مبلغ: %s %s", amount, currency),
		"شماره کارت: " + card,
		"",
		"پس از واریز، روی «ارسال رسید واریز» بزنید و تصویر رسید را ارسال کنید.",
	}, "\n")
}

func reviewCardText(req *domain.ConsultationRequest, p domain.Profile, currency string) string {
	u := domain.User{FirstName: p.FirstName, LastName: p.LastName}
	name := u.FullName()
	if name == "" {
		name = "بدون نام"
	}
	username := "بدون نام کاربری"
	if p.Username != "" {
		username = "@" + p.Username
	}
	return strings.Join([]string{
		fmt.Sprintf("📥 درخواست مشاوره جدید #%d", req.ID),
		"نام: " + html.EscapeString(name),
		"یوزرنیم: " + html.EscapeString(username),
		fmt.Sprintf("شناسه: <code>%d</code>", req.UserID),
		fmt.Sprintf("مبلغ: %s %s", req.Amount.String(), currency),
	}, "\n")
}

func rejectedNotice(reason string) string {
	return "درخواست مشاوره شما رد شد ❌\nدلیل: " + html.EscapeString(reason)
}

func serviceReply(label string) string {
	return fmt.Sprintf("خدمت %s به زودی در دسترس قرار می‌گیرد.", label)
}

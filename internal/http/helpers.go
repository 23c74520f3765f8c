package http

import (
	"fmt"
	"strings"

	"banchi/internal/core"
)

// User-facing messages that are not validation reasons.
const (
	msgBadRequest      = "รูปแบบคำขอไม่ถูกต้อง"
	msgSaveFailed      = "บันทึกข้อมูลไม่สำเร็จ กรุณาลองใหม่"
	msgLoadFailed      = "โหลดข้อมูลไม่สำเร็จ"
	msgReportFailed    = "สร้างรายงานไม่สำเร็จ"
	msgRateLimited     = "ส่งข้อมูลบ่อยเกินไป กรุณารอสักครู่"
	msgNotFound        = "ไม่พบหน้าที่ต้องการ"
	msgSessionFailed   = "ไม่สามารถเริ่มเซสชันได้"
	msgIncomeAdmitted  = "เพิ่มรายรับ '%s' จำนวน %s บาทเรียบร้อยแล้ว"
	msgExpenseAdmitted = "เพิ่มรายจ่าย '%s' จำนวน %s บาทเรียบร้อยแล้ว"
)

func admittedMessage(kind core.Kind, label string, amount core.Money) string {
	format := msgIncomeAdmitted
	if kind == core.KindExpense {
		format = msgExpenseAdmitted
	}
	return fmt.Sprintf(format, label, core.FormatAmount(amount))
}

// sanitizeInput removes control characters except tab, newline, carriage
// return and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatBaht renders an amount for display, e.g. "1,234.50 บาท".
func formatBaht(m core.Money) string {
	return core.FormatAmount(m) + " บาท"
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "edtech"

// 结果标签取值。
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	cvExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cv_exports_total",
			Help:      "CV exports by format and result.",
		},
		[]string{"format", "result"},
	)

	verificationEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_emails_total",
			Help:      "Verification mails handed to the SMTP relay, by result.",
		},
		[]string{"result"},
	)
)

// ObserveExport 记录一次导出结果；format 需是已识别的格式，否则统一记为 "unknown"。
func ObserveExport(format string, err error) {
	switch format {
	case "pdf", "docx", "txt":
	default:
		format = "unknown"
	}
	cvExportsTotal.WithLabelValues(format, result(err)).Inc()
}

// ObserveVerificationEmail 记录一次验证邮件投递结果。
func ObserveVerificationEmail(err error) {
	verificationEmailsTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

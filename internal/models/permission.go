package models

// Permission is an atomic capability string. The catalog below is the code-level
// source of truth: it backs the admin "available permissions" query and, in
// strict mode, the validator applied to role permission sets on write.
type Permission string

const (
	PermReportCreate   Permission = "REPORT_CREATE"
	PermReportView     Permission = "REPORT_VIEW"
	PermReportViewAll  Permission = "REPORT_VIEW_ALL"
	PermReportUpdate   Permission = "REPORT_UPDATE"
	PermReportDelete   Permission = "REPORT_DELETE"
	PermReportAssign   Permission = "REPORT_ASSIGN"
	PermReportClassify Permission = "REPORT_CLASSIFY"
	PermCaseClose      Permission = "CASE_CLOSE"
	PermCaseExport     Permission = "CASE_EXPORT"

	PermDocUploadDPE     Permission = "DOC_UPLOAD_DPE"
	PermDocUploadMedical Permission = "DOC_UPLOAD_MEDICAL"
	PermDocUploadPsych   Permission = "DOC_UPLOAD_PSYCH"
	PermDocUploadPolice  Permission = "DOC_UPLOAD_POLICE"
	PermDocUploadClosure Permission = "DOC_UPLOAD_CLOSURE"
	PermDocView          Permission = "DOC_VIEW"

	PermUserView    Permission = "USER_VIEW"
	PermUserManage  Permission = "USER_MANAGE"
	PermUserApprove Permission = "USER_APPROVE"

	PermRoleView   Permission = "ROLE_VIEW"
	PermRoleManage Permission = "ROLE_MANAGE"

	PermVillageView   Permission = "VILLAGE_VIEW"
	PermVillageManage Permission = "VILLAGE_MANAGE"

	PermNotifView     Permission = "NOTIF_VIEW"
	PermStatsView     Permission = "STATS_VIEW"
	PermAuditView     Permission = "AUDIT_VIEW"
	PermTriageAnalyze Permission = "TRIAGE_ANALYZE"
)

var permissionCatalog = []Permission{
	PermReportCreate,
	PermReportView,
	PermReportViewAll,
	PermReportUpdate,
	PermReportDelete,
	PermReportAssign,
	PermReportClassify,
	PermCaseClose,
	PermCaseExport,
	PermDocUploadDPE,
	PermDocUploadMedical,
	PermDocUploadPsych,
	PermDocUploadPolice,
	PermDocUploadClosure,
	PermDocView,
	PermUserView,
	PermUserManage,
	PermUserApprove,
	PermRoleView,
	PermRoleManage,
	PermVillageView,
	PermVillageManage,
	PermNotifView,
	PermStatsView,
	PermAuditView,
	PermTriageAnalyze,
}

// AllPermissions returns the full catalog in a stable order.
func AllPermissions() []Permission {
	catalog := make([]Permission, len(permissionCatalog))
	copy(catalog, permissionCatalog)
	return catalog
}

// ValidPermission reports whether the given string is a catalog member.
func ValidPermission(s string) bool {
	for _, p := range permissionCatalog {
		if string(p) == s {
			return true
		}
	}
	return false
}

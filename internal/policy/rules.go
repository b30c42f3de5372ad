package policy

// Result code groups as documented by the gateway. Dots are written as [.]
// so the patterns survive govaluate's string-literal escaping unchanged.
const (
	patternSuccessful             = `^(000[.]000[.]|000[.]100[.]1|000[.][36]|000[.]400[.]1[12]0)`
	patternSuccessfulManualReview = `^(000[.]400[.]0[^3]|000[.]400[.]100)`
	patternPending                = `^(000[.]200)`
	patternPendingLongTerm        = `^(800[.]400[.]5|100[.]400[.]500)`
	patternChargeback             = `^(000[.]100[.]2)`

	patternRejected3DS            = `^(000[.]400[.][1][0-9][1-9]|000[.]400[.]2)`
	patternRejectedBank           = `^(800[.][17]00|800[.]800[.][123])`
	patternRejectedCommunication  = `^(900[.][1234]00|000[.]400[.]030)`
	patternRejectedSystem         = `^(800[.][56]|999[.]|600[.]1|800[.]800[.][84])`
	patternRejectedAsync          = `^(100[.]39[765])`
	patternRejectedSoftDecline    = `^(300[.]100[.]100)`
	patternRejectedExternalRisk   = `^(100[.]400[.][0-3]|100[.]38|100[.]370[.]100|100[.]370[.]11)`
	patternRejectedAddressCheck   = `^(800[.]400[.]1)`
	patternRejected3DSecure       = `^(800[.]400[.]2|100[.]380[.]4|100[.]390)`
	patternRejectedBlacklist      = `^(100[.]100[.]701|800[.][32])`
	patternRejectedRiskValidation = `^(800[.]1[123456]0)`
	patternRejectedConfig         = `^(600[.][23]|500[.][12]|800[.]121)`
	patternRejectedRegistration   = `^(100[.][13]50)`
	patternRejectedJob            = `^(100[.]250|100[.]360)`
	patternRejectedReference      = `^(700[.][1345][05]0)`
	patternRejectedFormat         = `^(200[.][123]|100[.][53][07]|800[.]900|100[.][69]00[.]500)`
	patternRejectedAddress        = `^(100[.]800)`
	patternRejectedContact        = `^(100[.]700|100[.]900[.][123467890][0-9][0-9])`
	patternRejectedAccount        = `^(100[.]100|100[.]2[01])`
	patternRejectedAmount         = `^(100[.]55)`
	patternRejectedRiskManagement = `^(100[.]380[.][23]|100[.]380[.]101)`
)

func matches(pattern string) string {
	return "code =~ '" + pattern + "'"
}

// DefaultRules is the gateway's documented result code table. Success and
// pending groups come first so the broader rejection groups cannot shadow them.
func DefaultRules() []StatusRule {
	return []StatusRule{
		{ID: "successful", Expression: matches(patternSuccessful), Status: StatusSuccessful},
		{ID: "successful_manual_review", Expression: matches(patternSuccessfulManualReview), Status: StatusSuccessfulManualReview},
		{ID: "pending", Expression: matches(patternPending), Status: StatusPending},
		{ID: "pending_long_term", Expression: matches(patternPendingLongTerm), Status: StatusPending},
		{ID: "chargeback", Expression: matches(patternChargeback), Status: StatusChargeback},

		{ID: "rejected_3ds", Expression: matches(patternRejected3DS), Status: StatusRejected},
		{ID: "rejected_bank", Expression: matches(patternRejectedBank), Status: StatusRejected},
		{ID: "rejected_communication", Expression: matches(patternRejectedCommunication), Status: StatusRejected},
		{ID: "rejected_system", Expression: matches(patternRejectedSystem), Status: StatusRejected},
		{ID: "rejected_async", Expression: matches(patternRejectedAsync), Status: StatusRejected},
		{ID: "rejected_soft_decline", Expression: matches(patternRejectedSoftDecline), Status: StatusRejected},
		{ID: "rejected_external_risk", Expression: matches(patternRejectedExternalRisk), Status: StatusRejected},
		{ID: "rejected_address_check", Expression: matches(patternRejectedAddressCheck), Status: StatusRejected},
		{ID: "rejected_3dsecure", Expression: matches(patternRejected3DSecure), Status: StatusRejected},
		{ID: "rejected_blacklist", Expression: matches(patternRejectedBlacklist), Status: StatusRejected},
		{ID: "rejected_risk_validation", Expression: matches(patternRejectedRiskValidation), Status: StatusRejected},
		{ID: "rejected_config", Expression: matches(patternRejectedConfig), Status: StatusRejected},
		{ID: "rejected_registration", Expression: matches(patternRejectedRegistration), Status: StatusRejected},
		{ID: "rejected_job", Expression: matches(patternRejectedJob), Status: StatusRejected},
		{ID: "rejected_reference", Expression: matches(patternRejectedReference), Status: StatusRejected},
		{ID: "rejected_format", Expression: matches(patternRejectedFormat), Status: StatusRejected},
		{ID: "rejected_address", Expression: matches(patternRejectedAddress), Status: StatusRejected},
		{ID: "rejected_contact", Expression: matches(patternRejectedContact), Status: StatusRejected},
		{ID: "rejected_account", Expression: matches(patternRejectedAccount), Status: StatusRejected},
		{ID: "rejected_amount", Expression: matches(patternRejectedAmount), Status: StatusRejected},
		{ID: "rejected_risk_management", Expression: matches(patternRejectedRiskManagement), Status: StatusRejected},
	}
}

package sqlinline

// All returns every statement by constant name.
func All() map[string]string {
	return map[string]string{
		"QRefillAndGetCredits": QRefillAndGetCredits,
		"QDeductCredits":       QDeductCredits,
		"QInsertDocument":      QInsertDocument,
		"QSelectDocument":      QSelectDocument,
		"QListDocuments":       QListDocuments,
		"QUpdateDocument":      QUpdateDocument,
		"QDeleteDocument":      QDeleteDocument,
		"QInsertUsageEvent":    QInsertUsageEvent,
	}
}

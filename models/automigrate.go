package models

// AllTables returns every model which is persisted, in dependency order.
func AllTables() []any {
	return []any{
		&Actor{},
		&Account{},
		&Token{},
		&Status{},
		&StatusAttachment{},
		&StatusAttachmentRequest{},
		&StatusCard{},
		&StatusCardRequest{},
		&StatusDistributionRequest{},
		&StatusEdit{},
		&StatusMention{},
		&StatusPoll{},
		&StatusPollOption{},
		&StatusPollExpiryRequest{},
		&Tag{},
		&StatusTag{},
		&TagUsage{},
		&FeaturedTag{},
		&InboxActivity{},
	}
}

package main

import (
	"fmt"

	"github.com/davecheney/revise/models"
	"gorm.io/gorm"
)

type HouseKeepingCmd struct {
}

func (c *HouseKeepingCmd) Run(ctx *Context) error {
	db, err := ctx.openDB()
	if err != nil {
		return err
	}
	max := ctx.Settings.Workers.MaxAttempts
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []struct {
			name  string
			model any
		}{
			{"attachment", &models.StatusAttachmentRequest{}},
			{"card", &models.StatusCardRequest{}},
			{"poll expiry", &models.StatusPollExpiryRequest{}},
			{"inbox", &models.InboxActivity{}},
		} {
			res := tx.Where("attempts >= ?", max).Delete(table.model)
			if res.Error != nil {
				return res.Error
			}
			fmt.Println("deleted", res.RowsAffected, "exhausted", table.name, "requests")
		}

		return nil
	})
}

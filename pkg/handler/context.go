package handler

// DI for all handlers.

import (
	"github.com/yumyai/hgtmatch/pkg/db"
)

type DBContext struct {
	Results *db.ResultDB
}

package sql

import "embed"

// Migrations holds the idempotent schema migrations, applied in filename order.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/find_fees_by_description.sql
var FindFeesByDescription string

//go:embed queries/load_master.sql
var LoadMaster string

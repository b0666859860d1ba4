package db

// Tenant-owned tables. Repositories build every WHERE clause from these.
var (
	Products  = Table{Name: "products", Alias: "p", SoftDelete: true}
	Customers = Table{Name: "customers", Alias: "c", SoftDelete: true}
	Movements = Table{Name: "inventory_movements", Alias: "m"}
	Sales     = Table{Name: "sales", Alias: "s"}
)

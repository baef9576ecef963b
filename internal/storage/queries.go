package storage

const (
	insertExpenseSQL = `INSERT INTO expenses (dt, description, category, price_cents, inserted_at)
VALUES (?, ?, ?, ?, ?)`

	maxInsertedAtSQL = `SELECT COALESCE(MAX(inserted_at), 0) FROM expenses`

	lastExpenseSQL = `SELECT id, dt, description, category, price_cents, inserted_at
FROM expenses
ORDER BY inserted_at DESC, id DESC
LIMIT 1`

	deleteExpenseSQL = `DELETE FROM expenses WHERE id = ?`

	distinctCategoriesSQL = `SELECT DISTINCT category FROM expenses ORDER BY category`

	listExpensesSQL = `SELECT id, dt, description, category, price_cents, inserted_at
FROM expenses
ORDER BY dt, id`

	recentExpensesSQL = `SELECT id, dt, description, category, price_cents, inserted_at
FROM (SELECT id, dt, description, category, price_cents, inserted_at
      FROM expenses
      ORDER BY inserted_at DESC, id DESC
      LIMIT ?) sub
ORDER BY inserted_at, id`

	redateExpensesSQL = `UPDATE expenses SET dt = ? WHERE dt = ?`

	insertIncomeSQL = `INSERT INTO income (dt, description, amount_cents) VALUES (?, ?, ?)`

	lastIncomeSQL = `SELECT id, dt, description, amount_cents FROM income ORDER BY id DESC LIMIT 1`

	deleteIncomeSQL = `DELETE FROM income WHERE id = ?`

	distinctIncomeDescriptionsSQL = `SELECT DISTINCT description FROM income ORDER BY description`

	listIncomeSQL = `SELECT id, dt, description, amount_cents FROM income ORDER BY dt, id`

	fixedPriceSQL = `SELECT price_cents FROM fixed_price_categories WHERE category = ?`

	fixedPricesSQL = `SELECT category, price_cents FROM fixed_price_categories ORDER BY category`

	upsertFixedPriceSQL = `INSERT INTO fixed_price_categories (category, price_cents) VALUES (?, ?)
ON CONFLICT (category) DO UPDATE SET price_cents = excluded.price_cents`

	deleteFixedPriceSQL = `DELETE FROM fixed_price_categories WHERE category = ?`

	groupingsSQL = `SELECT category, major_category FROM major_category_groupings`

	upsertGroupingSQL = `INSERT INTO major_category_groupings (category, major_category) VALUES (?, ?)
ON CONFLICT (category) DO UPDATE SET major_category = excluded.major_category`

	outdatedSQL = `SELECT category FROM outdated_categories`

	insertOutdatedSQL = `INSERT INTO outdated_categories (category) VALUES (?) ON CONFLICT (category) DO NOTHING`
)

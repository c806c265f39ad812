package contextkeys

// Ключи, под которыми middleware кладет данные в gin.Context.
// Вынесены в отдельный пакет, чтобы handlers и middleware
// не зависели друг от друга.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
	"github.com/smolnikov/goshop/internal/stripe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserRepo — фиктивное хранилище пользователей, ключ — email.
type fakeUserRepo struct {
	users map[string]*models.User
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		if !u.IsAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrEmailAlreadyTaken
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

// fakeProductRepo — фиктивное хранилище товаров.
// ReserveStockTx воспроизводит семантику списания остатка без настоящей БД.
type fakeProductRepo struct {
	products   map[int64]*models.Product
	reserveErr map[int64]error // принудительная ошибка резервирования по товару
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:   make(map[int64]*models.Product),
		reserveErr: make(map[int64]error),
	}
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	for _, p := range f.products {
		if p.SKU == product.SKU {
			return nil, storage.ErrSKUAlreadyTaken
		}
	}
	product.ID = int64(len(f.products) + 1)
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	return p, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) ReserveStockTx(ctx context.Context, tx *sql.Tx, productID int64, quantity int) (int, error) {
	if err, ok := f.reserveErr[productID]; ok {
		return 0, err
	}
	p, ok := f.products[productID]
	if !ok {
		return 0, storage.ErrProductNotFound
	}
	if p.Stock < quantity {
		return p.Stock, storage.ErrInsufficientStock
	}
	p.Stock -= quantity
	return p.Stock + quantity, nil
}

// fakeCartRepo — фиктивное хранилище корзин, ключ — userID.
type fakeCartRepo struct {
	carts map[int64]*models.Cart
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[int64]*models.Cart)}
}

func (f *fakeCartRepo) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, storage.ErrCartNotFound
	}
	return cart, nil
}

func (f *fakeCartRepo) GetCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	return f.GetCartByUserID(ctx, userID)
}

func (f *fakeCartRepo) UpsertItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error) {
	for _, cart := range f.carts {
		if cart.ID != cartID {
			continue
		}
		for _, item := range cart.Items {
			if item.ProductID == productID {
				item.Quantity = quantity
				return item, nil
			}
		}
		item := &models.CartItem{
			ID:        int64(len(cart.Items) + 1),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
		}
		cart.Items = append(cart.Items, item)
		return item, nil
	}
	return nil, storage.ErrCartNotFound
}

func (f *fakeCartRepo) DeleteItem(ctx context.Context, cartID, productID int64) (bool, error) {
	for _, cart := range f.carts {
		if cart.ID != cartID {
			continue
		}
		for i, item := range cart.Items {
			if item.ProductID == productID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeCartRepo) DeleteItemsTx(ctx context.Context, tx *sql.Tx, cartID int64, productIDs []int64) error {
	for _, id := range productIDs {
		if _, err := f.DeleteItem(ctx, cartID, id); err != nil {
			return err
		}
	}
	return nil
}

// fakeOrderRepo — фиктивное хранилище заказов с подсчётом вызовов:
// тесты вебхука проверяют, что повторная доставка не трогает статус.
type fakeOrderRepo struct {
	orders            map[int64]*models.Order
	nextID            int64
	updateStatusCalls int
	updateStatusErr   error
	intentErr         error
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order), nextID: 1}
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	order.ID = f.nextID
	f.nextID++
	for _, item := range order.Items {
		item.OrderID = order.ID
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	return f.GetOrderByID(ctx, id)
}

func (f *fakeOrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error {
	f.updateStatusCalls++
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (f *fakeOrderRepo) SetPaymentIntentTx(ctx context.Context, tx *sql.Tx, id int64, paymentIntentID string) error {
	if f.intentErr != nil {
		return f.intentErr
	}
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.PaymentIntentID = &paymentIntentID
	return nil
}

// fakeCategoryRepo — фиктивное хранилище категорий.
type fakeCategoryRepo struct {
	categories map[int64]*models.Category
}

var _ storage.CategoryStorage = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[int64]*models.Category)}
}

func (f *fakeCategoryRepo) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, storage.ErrCategoryNotFound
	}
	return c, nil
}

func (f *fakeCategoryRepo) ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategoryRepo) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.ID = int64(len(f.categories) + 1)
	f.categories[category.ID] = category
	return category, nil
}

func (f *fakeCategoryRepo) UpdateCategory(ctx context.Context, category *models.Category) error {
	if _, ok := f.categories[category.ID]; !ok {
		return storage.ErrCategoryNotFound
	}
	f.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryRepo) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

// fakeBannerRepo — фиктивное хранилище баннеров.
type fakeBannerRepo struct {
	banners map[int64]*models.Banner
	listErr error
}

var _ storage.BannerStorage = (*fakeBannerRepo)(nil)

func newFakeBannerRepo() *fakeBannerRepo {
	return &fakeBannerRepo{banners: make(map[int64]*models.Banner)}
}

func (f *fakeBannerRepo) GetBannerByID(ctx context.Context, id int64) (*models.Banner, error) {
	b, ok := f.banners[id]
	if !ok {
		return nil, storage.ErrBannerNotFound
	}
	return b, nil
}

func (f *fakeBannerRepo) ListActiveBanners(ctx context.Context) ([]*models.Banner, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Banner
	for _, b := range f.banners {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBannerRepo) ListBanners(ctx context.Context, offset, limit int) ([]*models.Banner, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Banner
	for _, b := range f.banners {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBannerRepo) CreateBanner(ctx context.Context, banner *models.Banner) (*models.Banner, error) {
	banner.ID = int64(len(f.banners) + 1)
	f.banners[banner.ID] = banner
	return banner, nil
}

func (f *fakeBannerRepo) UpdateBanner(ctx context.Context, id int64, patch models.BannerPatch) (*models.Banner, error) {
	b, ok := f.banners[id]
	if !ok {
		return nil, storage.ErrBannerNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.ImageURL != nil {
		b.ImageURL = *patch.ImageURL
	}
	if patch.LinkURL != nil {
		b.LinkURL = patch.LinkURL
	}
	if patch.IsActive != nil {
		b.IsActive = *patch.IsActive
	}
	return b, nil
}

func (f *fakeBannerRepo) DeleteBanner(ctx context.Context, id int64) error {
	if _, ok := f.banners[id]; !ok {
		return storage.ErrBannerNotFound
	}
	delete(f.banners, id)
	return nil
}

// fakeStatsRepo отдаёт заранее заданные показатели.
type fakeStatsRepo struct {
	stats *models.DashboardStats
	err   error
}

var _ storage.StatsStorage = (*fakeStatsRepo)(nil)

func (f *fakeStatsRepo) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

// fakeStripeClient записывает параметры последнего вызова и возвращает
// заранее заданную сессию.
type fakeStripeClient struct {
	session    *stripe.CheckoutSession
	err        error
	lastParams stripe.CheckoutParams
	calls      int
}

var _ stripe.Client = (*fakeStripeClient)(nil)

func (f *fakeStripeClient) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	"academy/internal/domain/model"
	"academy/internal/domain/pricing"
	repo "academy/internal/repository"
)

// CartUsecase は /cart の業務ロジック
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	courseRepo   repo.CourseRepository
	clock        Clock
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	courseRepo repo.CourseRepository,
	clock Clock,
) *CartUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		courseRepo:   courseRepo,
		clock:        clock,
	}
}

type CartItemView struct {
	ID                 int64  `json:"id"`
	CourseID           int64  `json:"course_id"`
	Title              string `json:"title"`
	NormalPrice        int64  `json:"normal_price"`
	EffectivePrice     int64  `json:"effective_price"`
	IsEarlyBirdApplied bool   `json:"is_early_bird_applied"`
}

// CartSnapshot は読み取り時点の価格で組み立てたカート
type CartSnapshot struct {
	CartID int64          `json:"cart_id"`
	Items  []CartItemView `json:"items"`
	Total  int64          `json:"total"`
}

// 無ければ作る（ユーザーごとに1つ）
func (u *CartUsecase) GetOrCreateCart(ctx context.Context, userID int64) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, NewError(KindInvalidInput, "invalid user")
	}
	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return model.Cart{}, fmt.Errorf("get or create cart: %w", err)
	}
	return cart, nil
}

func (u *CartUsecase) GetMyCart(ctx context.Context, userID int64) (CartSnapshot, error) {
	cart, err := u.GetOrCreateCart(ctx, userID)
	if err != nil {
		return CartSnapshot{}, err
	}
	return u.Snapshot(ctx, cart.ID)
}

func (u *CartUsecase) AddItem(ctx context.Context, userID int64, courseID int64) (CartSnapshot, error) {
	if courseID <= 0 {
		return CartSnapshot{}, NewError(KindInvalidInput, "invalid course_id")
	}

	cart, err := u.GetOrCreateCart(ctx, userID)
	if err != nil {
		return CartSnapshot{}, err
	}

	// 講座チェック（公開のみ）
	c, err := u.courseRepo.FindByID(ctx, courseID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !c.IsPublished) {
		return CartSnapshot{}, &Error{Kind: KindCourseNotFound, Message: "course not found", MissingCourseIDs: []int64{courseID}}
	}
	if err != nil {
		return CartSnapshot{}, fmt.Errorf("find course: %w", err)
	}

	exists, err := u.cartItemRepo.ExistsByCartAndCourse(ctx, cart.ID, courseID)
	if err != nil {
		return CartSnapshot{}, fmt.Errorf("check cart item: %w", err)
	}
	if exists {
		return CartSnapshot{}, NewError(KindDuplicateItem, "course is already in cart")
	}

	// 同時追加は一意制約で弾かれる
	if _, err := u.cartItemRepo.Create(ctx, model.CartItem{CartID: cart.ID, CourseID: courseID}); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return CartSnapshot{}, NewError(KindDuplicateItem, "course is already in cart")
		}
		return CartSnapshot{}, fmt.Errorf("create cart item: %w", err)
	}

	return u.Snapshot(ctx, cart.ID)
}

// 明細削除（所有チェックはDBから取り直す）
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, itemID int64) (CartSnapshot, error) {
	if userID <= 0 || itemID <= 0 {
		return CartSnapshot{}, NewError(KindInvalidInput, "invalid id")
	}

	item, err := u.cartItemRepo.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartSnapshot{}, NewError(KindNotFound, "cart item not found")
	}
	if err != nil {
		return CartSnapshot{}, fmt.Errorf("find cart item: %w", err)
	}

	cart, err := u.cartRepo.FindByID(ctx, item.CartID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartSnapshot{}, NewError(KindNotFound, "cart item not found")
	}
	if err != nil {
		return CartSnapshot{}, fmt.Errorf("find cart: %w", err)
	}
	if cart.UserID != userID {
		return CartSnapshot{}, NewError(KindForbidden, "cart item belongs to another account")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartSnapshot{}, NewError(KindNotFound, "cart item not found")
		}
		return CartSnapshot{}, fmt.Errorf("delete cart item: %w", err)
	}

	return u.Snapshot(ctx, cart.ID)
}

// cartIDの明細を現在価格でまとめる（書き込みなし）
func (u *CartUsecase) Snapshot(ctx context.Context, cartID int64) (CartSnapshot, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartSnapshot{}, fmt.Errorf("list cart items: %w", err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.CourseID)
	}
	var courses []model.Course
	if len(ids) > 0 {
		courses, err = u.courseRepo.FindByIDs(ctx, ids)
		if err != nil {
			return CartSnapshot{}, fmt.Errorf("find courses: %w", err)
		}
	}
	byID := make(map[int64]model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	now := u.clock.Now()
	out := CartSnapshot{CartID: cartID, Items: make([]CartItemView, 0, len(items))}
	for _, it := range items {
		c, ok := byID[it.CourseID]
		if !ok {
			// 消えた講座は表示しない
			continue
		}
		price := pricing.EffectivePrice(c, now)
		out.Items = append(out.Items, CartItemView{
			ID:                 it.ID,
			CourseID:           c.ID,
			Title:              c.Title,
			NormalPrice:        c.NormalPrice,
			EffectivePrice:     price,
			IsEarlyBirdApplied: price < c.NormalPrice,
		})
		out.Total += price
	}
	return out, nil
}

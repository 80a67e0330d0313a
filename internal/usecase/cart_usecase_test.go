package usecase

import (
	"context"
	"testing"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartUsecase() (*CartUsecase, *mockCartRepo, *mockCartItemRepo, *mockCourseRepo) {
	carts := new(mockCartRepo)
	items := new(mockCartItemRepo)
	courses := new(mockCourseRepo)
	return NewCartUsecase(carts, items, courses, fixedClock{testNow}), carts, items, courses
}

// =====================
// AddItem
// =====================

func TestCartUsecase_AddItem_Success(t *testing.T) {
	ctx := context.Background()
	uc, carts, items, courses := newCartUsecase()

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	courses.On("FindByID", mock.Anything, int64(5)).Return(earlyBird(5, 5000, 3000), nil)
	items.On("ExistsByCartAndCourse", mock.Anything, int64(10), int64(5)).Return(false, nil)
	items.On("Create", mock.Anything, model.CartItem{CartID: 10, CourseID: 5}).Return(model.CartItem{ID: 100, CartID: 10, CourseID: 5}, nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{{ID: 100, CartID: 10, CourseID: 5}}, nil)
	courses.On("FindByIDs", mock.Anything, []int64{5}).Return([]model.Course{earlyBird(5, 5000, 3000)}, nil)

	snap, err := uc.AddItem(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(3000), snap.Items[0].EffectivePrice)
	assert.True(t, snap.Items[0].IsEarlyBirdApplied)
	assert.Equal(t, int64(3000), snap.Total)

	items.AssertExpectations(t)
}

func TestCartUsecase_AddItem_CourseNotFound(t *testing.T) {
	uc, carts, _, courses := newCartUsecase()

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	courses.On("FindByID", mock.Anything, int64(404)).Return(model.Course{}, repo.ErrNotFound)

	_, err := uc.AddItem(context.Background(), 1, 404)
	ue := assertKind(t, err, KindCourseNotFound)
	assert.Equal(t, []int64{404}, ue.MissingCourseIDs)
}

func TestCartUsecase_AddItem_UnpublishedIsNotFound(t *testing.T) {
	uc, carts, _, courses := newCartUsecase()

	c := course(7, 1000)
	c.IsPublished = false
	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	courses.On("FindByID", mock.Anything, int64(7)).Return(c, nil)

	_, err := uc.AddItem(context.Background(), 1, 7)
	assertKind(t, err, KindCourseNotFound)
}

func TestCartUsecase_AddItem_DuplicatePrecheck(t *testing.T) {
	uc, carts, items, courses := newCartUsecase()

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	courses.On("FindByID", mock.Anything, int64(5)).Return(course(5, 1000), nil)
	items.On("ExistsByCartAndCourse", mock.Anything, int64(10), int64(5)).Return(true, nil)

	_, err := uc.AddItem(context.Background(), 1, 5)
	assertKind(t, err, KindDuplicateItem)
	items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 事前チェックをすり抜けても一意制約で重複になる
func TestCartUsecase_AddItem_DuplicateFromUniqueIndex(t *testing.T) {
	uc, carts, items, courses := newCartUsecase()

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	courses.On("FindByID", mock.Anything, int64(5)).Return(course(5, 1000), nil)
	items.On("ExistsByCartAndCourse", mock.Anything, int64(10), int64(5)).Return(false, nil)
	items.On("Create", mock.Anything, mock.Anything).Return(model.CartItem{}, repo.ErrDuplicate)

	_, err := uc.AddItem(context.Background(), 1, 5)
	assertKind(t, err, KindDuplicateItem)
}

func TestCartUsecase_AddItem_InvalidCourseID(t *testing.T) {
	uc, _, _, _ := newCartUsecase()
	_, err := uc.AddItem(context.Background(), 1, 0)
	assertErrContains(t, err, "invalid course_id")
}

// =====================
// RemoveItem
// =====================

func TestCartUsecase_RemoveItem_NotFound(t *testing.T) {
	uc, _, items, _ := newCartUsecase()
	items.On("FindByID", mock.Anything, int64(9)).Return(model.CartItem{}, repo.ErrNotFound)

	_, err := uc.RemoveItem(context.Background(), 1, 9)
	assertKind(t, err, KindNotFound)
}

func TestCartUsecase_RemoveItem_OtherUsersCart(t *testing.T) {
	uc, carts, items, _ := newCartUsecase()
	items.On("FindByID", mock.Anything, int64(9)).Return(model.CartItem{ID: 9, CartID: 20, CourseID: 5}, nil)
	carts.On("FindByID", mock.Anything, int64(20)).Return(model.Cart{ID: 20, UserID: 2}, nil)

	_, err := uc.RemoveItem(context.Background(), 1, 9)
	assertKind(t, err, KindForbidden)
	items.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestCartUsecase_RemoveItem_Success(t *testing.T) {
	uc, carts, items, _ := newCartUsecase()
	items.On("FindByID", mock.Anything, int64(9)).Return(model.CartItem{ID: 9, CartID: 20, CourseID: 5}, nil)
	carts.On("FindByID", mock.Anything, int64(20)).Return(model.Cart{ID: 20, UserID: 1}, nil)
	items.On("DeleteByID", mock.Anything, int64(9)).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(20)).Return([]model.CartItem{}, nil)

	snap, err := uc.RemoveItem(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, int64(0), snap.Total)
}

// =====================
// Snapshot
// =====================

func TestCartUsecase_Snapshot_SkipsVanishedCourses(t *testing.T) {
	uc, _, items, courses := newCartUsecase()
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, CourseID: 5},
		{ID: 2, CartID: 10, CourseID: 6},
	}, nil)
	courses.On("FindByIDs", mock.Anything, []int64{5, 6}).Return([]model.Course{course(5, 4500)}, nil)

	snap, err := uc.Snapshot(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(5), snap.Items[0].CourseID)
	assert.False(t, snap.Items[0].IsEarlyBirdApplied)
	assert.Equal(t, int64(4500), snap.Total)
}

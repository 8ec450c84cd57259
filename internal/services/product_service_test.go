package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"digimall/internal/common"
	"digimall/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testImageBucket = "product-images"

type ProductServiceTestSuite struct {
	suite.Suite
	productRepo    *MockProductRepository
	variantRepo    *MockVariantRepository
	imageRepo      *MockProductImageRepository
	vendorRepo     *MockVendorRepository
	collectionRepo *MockCollectionRepository
	attributeRepo  *MockAttributeRepository
	minio          *MockMinioService
	tx             *fakeTransactor
	redis          *miniredis.Miniredis
	service        ProductService

	tenantID uuid.UUID
	userID   uuid.UUID
	vendor   *models.Vendor
}

func (suite *ProductServiceTestSuite) SetupTest() {
	suite.productRepo = &MockProductRepository{}
	suite.variantRepo = &MockVariantRepository{}
	suite.imageRepo = &MockProductImageRepository{}
	suite.vendorRepo = &MockVendorRepository{}
	suite.collectionRepo = &MockCollectionRepository{}
	suite.attributeRepo = &MockAttributeRepository{}
	suite.minio = &MockMinioService{}
	suite.tx = &fakeTransactor{}

	cache, mr := newTestCache(suite.T())
	suite.redis = mr
	suite.service = NewProductService(ProductDeps{
		Products:    suite.productRepo,
		Variants:    suite.variantRepo,
		Images:      suite.imageRepo,
		Vendors:     suite.vendorRepo,
		Collections: suite.collectionRepo,
		Attributes:  suite.attributeRepo,
		Minio:       suite.minio,
		ImageBucket: testImageBucket,
		Cache:       cache,
		Tx:          suite.tx,
		Logger:      zap.NewNop(),
	})

	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.vendor = &models.Vendor{ID: uuid.New(), TenantID: suite.tenantID, UserID: suite.userID, Status: models.VendorStatusApproved}
}

func (suite *ProductServiceTestSuite) TearDownTest() {
	suite.productRepo.AssertExpectations(suite.T())
	suite.variantRepo.AssertExpectations(suite.T())
	suite.imageRepo.AssertExpectations(suite.T())
	suite.vendorRepo.AssertExpectations(suite.T())
	suite.minio.AssertExpectations(suite.T())
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func (suite *ProductServiceTestSuite) expectVendor() {
	suite.vendorRepo.On("GetByUserID", mock.Anything, suite.tenantID, suite.userID).Return(suite.vendor, nil)
}

func (suite *ProductServiceTestSuite) ownProduct() *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		TenantID: suite.tenantID,
		VendorID: suite.vendor.ID,
		Name:     "Tile Mug",
		Slug:     "tile-mug",
		Status:   models.ProductStatusPublished,
	}
}

func basePrice(currency, amount string) *models.Price {
	return &models.Price{Currency: currency, Amount: decimal.RequireFromString(amount)}
}

func (suite *ProductServiceTestSuite) TestCreate_WithVariants() {
	ctx := context.Background()
	suite.expectVendor()
	collectionID := uuid.New()
	suite.collectionRepo.On("GetByID", ctx, suite.tenantID, collectionID).Return(&models.Collection{ID: collectionID}, nil)
	suite.productRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil)
	suite.variantRepo.On("Create", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)

	product := &models.Product{
		Name:          "Tile Mug",
		CollectionIDs: []uuid.UUID{collectionID, collectionID},
		Variants: []*models.ProductVariant{
			{SKU: "mug-blue", Stock: 10, Prices: []*models.Price{basePrice("EUR", "12.499")}},
			{SKU: "mug-green", Stock: 4, Prices: []*models.Price{basePrice("EUR", "12.00")}},
		},
	}
	require.NoError(suite.T(), suite.service.Create(ctx, suite.tenantID, suite.userID, product))

	assert.Equal(suite.T(), "tile-mug", product.Slug)
	assert.Equal(suite.T(), models.ProductStatusDraft, product.Status)
	assert.Equal(suite.T(), suite.vendor.ID, product.VendorID)
	assert.Len(suite.T(), product.CollectionIDs, 1)

	first, second := product.Variants[0], product.Variants[1]
	assert.Equal(suite.T(), "MUG-BLUE", first.SKU)
	assert.True(suite.T(), first.IsDefault)
	assert.False(suite.T(), second.IsDefault)
	assert.Equal(suite.T(), product.ID, first.ProductID)
	assert.Equal(suite.T(), 1, first.Prices[0].MinQuantity)
	assert.True(suite.T(), decimal.RequireFromString("12.50").Equal(first.Prices[0].Amount))
	suite.variantRepo.AssertNumberOfCalls(suite.T(), "Create", 2)
	assert.Equal(suite.T(), 1, suite.tx.commits)
}

func (suite *ProductServiceTestSuite) TestCreate_VariantFailureRollsBack() {
	ctx := context.Background()
	suite.expectVendor()
	suite.productRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil)
	suite.variantRepo.On("Create", ctx, mock.MatchedBy(func(v *models.ProductVariant) bool { return v.SKU == "MUG-BLUE" })).Return(nil)
	suite.variantRepo.On("Create", ctx, mock.MatchedBy(func(v *models.ProductVariant) bool { return v.SKU == "MUG-GREEN" })).
		Return(common.ErrConflict)

	product := &models.Product{
		Name: "Tile Mug",
		Variants: []*models.ProductVariant{
			{SKU: "mug-blue", Stock: 10, Prices: []*models.Price{basePrice("EUR", "12.00")}},
			{SKU: "mug-green", Stock: 4, Prices: []*models.Price{basePrice("EUR", "12.00")}},
		},
	}
	err := suite.service.Create(ctx, suite.tenantID, suite.userID, product)
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
	assert.Contains(suite.T(), err.Error(), "MUG-GREEN")
	assert.Equal(suite.T(), 0, suite.tx.commits)
	assert.Equal(suite.T(), 1, suite.tx.rollbacks)
}

func (suite *ProductServiceTestSuite) TestCreate_RejectsOutOfRangeValues() {
	ctx := context.Background()
	suite.expectVendor()

	err := suite.service.Create(ctx, suite.tenantID, suite.userID, &models.Product{
		Name: "Tile Mug",
		Variants: []*models.ProductVariant{
			{SKU: "mug-blue", Stock: math.MaxInt32 + 1, Prices: []*models.Price{basePrice("EUR", "10000000000")}},
		},
	})
	var verr *common.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "variants[0].stock")
	assert.Contains(suite.T(), verr.Fields, "variants[0].prices[0].amount")
	suite.productRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	assert.Zero(suite.T(), suite.tx.commits+suite.tx.rollbacks)
}

func (suite *ProductServiceTestSuite) TestCreate_AcceptsLargestStoredAmount() {
	ctx := context.Background()
	suite.expectVendor()
	suite.productRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil)
	suite.variantRepo.On("Create", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)

	err := suite.service.Create(ctx, suite.tenantID, suite.userID, &models.Product{
		Name: "Tile Mug",
		Variants: []*models.ProductVariant{
			{SKU: "mug-blue", Stock: math.MaxInt32, Prices: []*models.Price{basePrice("EUR", "9999999999.99")}},
		},
	})
	assert.NoError(suite.T(), err)
}

func (suite *ProductServiceTestSuite) TestCreate_PendingVendorForbidden() {
	ctx := context.Background()
	suite.vendor.Status = models.VendorStatusPending
	suite.expectVendor()

	err := suite.service.Create(ctx, suite.tenantID, suite.userID, &models.Product{Name: "Tile Mug"})
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
}

func (suite *ProductServiceTestSuite) TestCreate_NotAVendor() {
	ctx := context.Background()
	suite.vendorRepo.On("GetByUserID", ctx, suite.tenantID, suite.userID).Return(nil, common.ErrNotFound)

	err := suite.service.Create(ctx, suite.tenantID, suite.userID, &models.Product{Name: "Tile Mug"})
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
}

func (suite *ProductServiceTestSuite) TestCreate_InvalidAttributeValue() {
	ctx := context.Background()
	suite.expectVendor()
	attr := &models.Attribute{ID: uuid.New(), Handle: "capacity_ml", Type: models.AttributeTypeNumber}
	suite.attributeRepo.On("GetByIDs", ctx, suite.tenantID, []uuid.UUID{attr.ID}).Return([]*models.Attribute{attr}, nil)

	err := suite.service.Create(ctx, suite.tenantID, suite.userID, &models.Product{
		Name:            "Tile Mug",
		AttributeValues: map[string]string{attr.ID.String(): "large"},
	})
	var verr *common.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "attribute_values."+attr.ID.String())
}

func (suite *ProductServiceTestSuite) TestUpdate_OtherVendorsProduct() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	product.VendorID = uuid.New()
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)

	err := suite.service.Update(ctx, suite.tenantID, suite.userID, &models.Product{ID: product.ID, Name: "Stolen"})
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
}

func (suite *ProductServiceTestSuite) TestDelete_WithOrdersConflicts() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)
	suite.imageRepo.On("ListByProduct", ctx, suite.tenantID, product.ID).Return([]*models.ProductImage{}, nil)
	suite.productRepo.On("Delete", ctx, suite.tenantID, product.ID).Return(common.ErrHasChildren)

	err := suite.service.Delete(ctx, suite.tenantID, suite.userID, product.ID)
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *ProductServiceTestSuite) TestDelete_RemovesImageObjects() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	images := []*models.ProductImage{{ID: uuid.New(), ObjectKey: "t/p/a.png"}, {ID: uuid.New(), ObjectKey: "t/p/b.png"}}
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)
	suite.imageRepo.On("ListByProduct", ctx, suite.tenantID, product.ID).Return(images, nil)
	suite.productRepo.On("Delete", ctx, suite.tenantID, product.ID).Return(nil)
	suite.minio.On("DeleteImage", ctx, testImageBucket, "t/p/a.png").Return(nil)
	suite.minio.On("DeleteImage", ctx, testImageBucket, "t/p/b.png").Return(errors.New("minio down"))

	assert.NoError(suite.T(), suite.service.Delete(ctx, suite.tenantID, suite.userID, product.ID))
}

func (suite *ProductServiceTestSuite) TestGetPublic_CachesAndSignsImages() {
	ctx := context.Background()
	product := suite.ownProduct()
	images := []*models.ProductImage{{ID: uuid.New(), ProductID: product.ID, ObjectKey: "t/p/a.png"}}

	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil).Once()
	suite.variantRepo.On("ListByProduct", ctx, suite.tenantID, product.ID).Return([]*models.ProductVariant{}, nil).Once()
	suite.imageRepo.On("ListByProduct", ctx, suite.tenantID, product.ID).Return(images, nil).Once()
	suite.vendorRepo.On("GetByID", ctx, suite.tenantID, suite.vendor.ID).Return(suite.vendor, nil)
	suite.minio.On("GetPresignedURL", ctx, testImageBucket, "t/p/a.png", imageURLExpiry).Return("https://cdn.test/a.png", nil)

	got, err := suite.service.GetPublic(ctx, suite.tenantID, product.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got.Images, 1)
	assert.Equal(suite.T(), "https://cdn.test/a.png", got.Images[0].URL)

	// served from redis on the second read
	got, err = suite.service.GetPublic(ctx, suite.tenantID, product.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "t/p/a.png", got.Images[0].ObjectKey)
}

func (suite *ProductServiceTestSuite) TestGetPublic_HidesDraftsAndSuspendedVendors() {
	ctx := context.Background()
	draft := suite.ownProduct()
	draft.Status = models.ProductStatusDraft
	suite.productRepo.On("GetByID", ctx, suite.tenantID, draft.ID).Return(draft, nil)
	suite.variantRepo.On("ListByProduct", ctx, suite.tenantID, draft.ID).Return([]*models.ProductVariant{}, nil)
	suite.imageRepo.On("ListByProduct", ctx, suite.tenantID, draft.ID).Return([]*models.ProductImage{}, nil)

	_, err := suite.service.GetPublic(ctx, suite.tenantID, draft.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	published := suite.ownProduct()
	suite.vendor.Status = models.VendorStatusSuspended
	suite.productRepo.On("GetByID", ctx, suite.tenantID, published.ID).Return(published, nil)
	suite.variantRepo.On("ListByProduct", ctx, suite.tenantID, published.ID).Return([]*models.ProductVariant{}, nil)
	suite.imageRepo.On("ListByProduct", ctx, suite.tenantID, published.ID).Return([]*models.ProductImage{}, nil)
	suite.vendorRepo.On("GetByID", ctx, suite.tenantID, suite.vendor.ID).Return(suite.vendor, nil)

	_, err = suite.service.GetPublic(ctx, suite.tenantID, published.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ProductServiceTestSuite) TestSearchPublic_ForcesStorefrontScope() {
	ctx := context.Background()
	tenant := &models.Tenant{ID: suite.tenantID, Currency: "EUR"}
	suite.productRepo.On("Search", ctx, suite.tenantID, mock.MatchedBy(func(f *models.ProductSearchFilter) bool {
		return f.PublicOnly && f.Status == models.ProductStatusPublished && f.Currency == "EUR" && f.Limit == 20
	})).Return([]*models.Product{}, 0, nil)

	_, _, err := suite.service.SearchPublic(ctx, tenant, &models.ProductSearchFilter{Status: models.ProductStatusDraft})
	assert.NoError(suite.T(), err)
}

func (suite *ProductServiceTestSuite) TestSearch_InvalidPriceRange() {
	lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)
	_, _, err := suite.service.Search(context.Background(), suite.tenantID, &models.ProductSearchFilter{MinPrice: &lo, MaxPrice: &hi})
	var verr *common.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "min_price")
}

func (suite *ProductServiceTestSuite) TestCreateVariant_FirstBecomesDefault() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)
	suite.variantRepo.On("ListByProduct", ctx, suite.tenantID, product.ID).Return([]*models.ProductVariant{}, nil)
	suite.variantRepo.On("Create", ctx, mock.AnythingOfType("*models.ProductVariant")).Return(nil)

	variant := &models.ProductVariant{SKU: "mug-red", Prices: []*models.Price{basePrice("EUR", "9.90")}}
	require.NoError(suite.T(), suite.service.CreateVariant(ctx, suite.tenantID, suite.userID, product.ID, variant))
	assert.True(suite.T(), variant.IsDefault)
	assert.Equal(suite.T(), "Tile Mug", variant.Name)
}

func (suite *ProductServiceTestSuite) TestDeleteVariant_WrongProduct() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	variant := &models.ProductVariant{ID: uuid.New(), ProductID: uuid.New()}
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)
	suite.variantRepo.On("GetByID", ctx, suite.tenantID, variant.ID).Return(variant, nil)

	err := suite.service.DeleteVariant(ctx, suite.tenantID, suite.userID, product.ID, variant.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ProductServiceTestSuite) TestUploadProductImage() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)
	reader := strings.NewReader("png-bytes")

	suite.minio.On("UploadImage", ctx, testImageBucket, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, suite.tenantID.String()+"/"+product.ID.String()+"/") && strings.HasSuffix(key, "-mug.png")
	}), reader, int64(9), "image/png").Return(nil)
	suite.imageRepo.On("Create", ctx, mock.AnythingOfType("*models.ProductImage")).Return(nil)
	suite.minio.On("GetPresignedURL", ctx, testImageBucket, mock.AnythingOfType("string"), imageURLExpiry).Return("https://cdn.test/mug.png", nil)

	image, err := suite.service.UploadProductImage(ctx, suite.tenantID, suite.userID, product.ID, "../../mug.png", "image/png; charset=binary", reader, 9)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://cdn.test/mug.png", image.URL)
	assert.Equal(suite.T(), "image/png", image.ContentType)
}

func (suite *ProductServiceTestSuite) TestUploadProductImage_RejectsTypeAndSize() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)

	_, err := suite.service.UploadProductImage(ctx, suite.tenantID, suite.userID, product.ID, "doc.pdf", "application/pdf", strings.NewReader("x"), 1)
	var verr *common.ValidationError
	assert.ErrorAs(suite.T(), err, &verr)

	_, err = suite.service.UploadProductImage(ctx, suite.tenantID, suite.userID, product.ID, "huge.png", "image/png", strings.NewReader("x"), 11<<20)
	assert.ErrorAs(suite.T(), err, &verr)
}

func (suite *ProductServiceTestSuite) TestUploadProductImage_CleansUpOnMetadataFailure() {
	ctx := context.Background()
	suite.expectVendor()
	product := suite.ownProduct()
	reader := strings.NewReader("gif")
	suite.productRepo.On("GetByID", ctx, suite.tenantID, product.ID).Return(product, nil)
	suite.minio.On("UploadImage", ctx, testImageBucket, mock.AnythingOfType("string"), reader, int64(3), "image/gif").Return(nil)
	suite.imageRepo.On("Create", ctx, mock.AnythingOfType("*models.ProductImage")).Return(errors.New("db down"))
	suite.minio.On("DeleteImage", ctx, testImageBucket, mock.AnythingOfType("string")).Return(nil)

	_, err := suite.service.UploadProductImage(ctx, suite.tenantID, suite.userID, product.ID, "a.gif", "image/gif", reader, 3)
	assert.Error(suite.T(), err)
}

func TestValidateVariant(t *testing.T) {
	compare := decimal.NewFromInt(5)
	variant := &models.ProductVariant{
		SKU:   "",
		Stock: -1,
		Prices: []*models.Price{
			{Currency: "eur", Amount: decimal.NewFromInt(10), CompareAmount: &compare},
			{Currency: "EUR", Amount: decimal.NewFromInt(9), MinQuantity: 1},
			{Currency: "USD", Amount: decimal.Zero, MinQuantity: 5},
		},
	}
	err := validateVariant(variant, "")
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sku")
	assert.Contains(t, verr.Fields, "stock")
	assert.Contains(t, verr.Fields, "prices[0].compare_amount")
	assert.Contains(t, verr.Fields, "prices[1].min_quantity")
	assert.Contains(t, verr.Fields, "prices[2].amount")
	assert.Contains(t, verr.Fields, "prices")

	err = validateVariant(&models.ProductVariant{SKU: "X"}, "variants[0].")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "variants[0].prices")
}

package catalog

const quickListQuery = `
query quickList($first: Int!) {
  products(first: $first, sortKey: BEST_SELLING) {
    edges {
      node {
        id
        title
        handle
        priceRange {
          minVariantPrice {
            amount
          }
        }
        featuredImage {
          url(transform: {maxWidth: 150, maxHeight: 150, preferredContentType: WEBP})
        }
        availableForSale
      }
    }
  }
}`

const productFields = `
    id
    title
    description
    handle
    productType
    tags
    featuredImage {
      url(transform: {maxWidth: 800, maxHeight: 800, preferredContentType: WEBP})
    }
    images(first: 5) {
      edges {
        node {
          url(transform: {maxWidth: 800, maxHeight: 800, preferredContentType: WEBP})
          altText
        }
      }
    }
    priceRange {
      minVariantPrice {
        amount
        currencyCode
      }
    }
    variants(first: 10) {
      edges {
        node {
          id
          title
          price {
            amount
            currencyCode
          }
          availableForSale
        }
      }
    }
    availableForSale`

const productByIDQuery = `
query getProductById($id: ID!) {
  product(id: $id) {` + productFields + `
  }
}`

const productByHandleQuery = `
query getProductByHandle($handle: String!) {
  productByHandle(handle: $handle) {` + productFields + `
  }
}`

const searchQuery = `
query searchProducts($query: String!, $first: Int!) {
  products(first: $first, query: $query, sortKey: RELEVANCE) {
    edges {
      node {
        id
        title
        handle
        priceRange {
          minVariantPrice {
            amount
            currencyCode
          }
        }
        images(first: 1) {
          edges {
            node {
              url(transform: {maxWidth: 300, maxHeight: 300})
              altText
            }
          }
        }
        availableForSale
      }
    }
  }
}`

const listNodeFields = `
      edges {
        node {
          id
          title
          description
          handle
          productType
          tags
          priceRange {
            minVariantPrice {
              amount
              currencyCode
            }
          }
          images(first: 1) {
            edges {
              node {
                url(transform: {maxWidth: 400, maxHeight: 400})
                altText
              }
            }
          }
          variants(first: 5) {
            edges {
              node {
                id
                title
                price {
                  amount
                  currencyCode
                }
                availableForSale
              }
            }
          }
          availableForSale
        }
      }`

const listQuery = `
query getProducts($first: Int!, $sortKey: ProductSortKeys!, $reverse: Boolean!) {
  products(first: $first, sortKey: $sortKey, reverse: $reverse) {` + listNodeFields + `
  }
}`

const listByCategoryQuery = `
query getProducts($first: Int!, $sortKey: ProductSortKeys!, $reverse: Boolean!, $query: String!) {
  products(first: $first, sortKey: $sortKey, reverse: $reverse, query: $query) {` + listNodeFields + `
  }
}`

const shopQuery = `
query {
  shop {
    name
    primaryDomain {
      url
    }
  }
}`

const batchFields = `
    id
    title
    handle
    priceRange {
      minVariantPrice {
        amount
        currencyCode
      }
    }
    images(first: 1) {
      edges {
        node {
          url(transform: {maxWidth: 300, maxHeight: 300})
          altText
        }
      }
    }
    availableForSale`

const adminListQuery = `
query adminProducts($first: Int!, $reverse: Boolean!) {
  products(first: $first, reverse: $reverse) {
    edges {
      node {
        id
        title
        description
        handle
        availableForSale
        priceRange {
          minVariantPrice {
            amount
            currencyCode
          }
        }
        images(first: 1) {
          edges {
            node {
              url(transform: {maxWidth: 400, maxHeight: 400})
              altText
            }
          }
        }
        variants(first: 5) {
          edges {
            node {
              id
              title
              availableForSale
              price {
                amount
                currencyCode
              }
            }
          }
        }
      }
    }
  }
}`

const adminProductQuery = `
query adminProduct($handle: String!) {
  productByHandle(handle: $handle) {
    id
    title
    description
    handle
    availableForSale
    priceRange {
      minVariantPrice {
        amount
        currencyCode
      }
    }
    images(first: 5) {
      edges {
        node {
          url
          altText
        }
      }
    }
    variants(first: 10) {
      edges {
        node {
          id
          title
          sku
          availableForSale
          price {
            amount
            currencyCode
          }
        }
      }
    }
  }
}`

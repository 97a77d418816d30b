package sanity

// GROQ queries issued by Store.
const (
	postPathsQuery = `*[_type == "post"]{
  _id,
  slug {
    current
  }
}`

	postsQuery = `*[_type == "post"] | order(_createdAt desc){
  _id,
  _createdAt,
  title,
  author -> {
    name,
    image
  },
  description,
  mainImage,
  slug
}`

	// The approved-comments join runs server side: only comments whose post
	// reference equals the post id and whose approval flag is set come back.
	postBySlugQuery = `*[_type == "post" && slug.current == $slug][0]{
  _id,
  _createdAt,
  title,
  author -> {
    name,
    image
  },
  'comments': *[
    _type == "comment" && post._ref == ^._id && approved == true
  ],
  description,
  mainImage,
  slug,
  body
}`
)
